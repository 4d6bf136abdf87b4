package web

import (
	"net/http"

	"github.com/dpmglangsa/gampong/internal/core"
	"github.com/dpmglangsa/gampong/internal/ledger"
)

type nameRequest struct {
	Name string `json:"name"`
}

type groupHeadRequest struct {
	SubDistrict string `json:"subDistrict,omitempty"`
	Cluster     string `json:"cluster,omitempty"`
	OldName     string `json:"oldName"`
	NewName     string `json:"newName"`
}

type addVillageRequest struct {
	SubDistrict     string `json:"subDistrict"`
	SubDistrictHead string `json:"subDistrictHead"`
	Cluster         string `json:"cluster"`
	ClusterHead     string `json:"clusterHead"`
	Village         string `json:"village"`
	VillageHead     string `json:"villageHead"`
}

type detailRequest struct {
	Fields map[string]string `json:"fields"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type staffRequest struct {
	Edits []core.StaffEdit `json:"edits"`
}

type hamletHeadRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	Gender     string `json:"gender"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
}

type councilRequest struct {
	Edits []core.CouncilEdit `json:"edits"`
}

type councilMemberRequest struct {
	Seq    *int   `json:"seq,omitempty"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Remark string `json:"remark"`
}

type secretaryRequest struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// respondEdit writes the result of an edit, or its error.
func (s *Server) respondEdit(w http.ResponseWriter, r *http.Request, status int, res core.EditResult, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, status, res)
}

func (s *Server) handleVillageHead(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateVillageHeadName(requestContext(r), village, req.Name)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleSubDistrictHead(w http.ResponseWriter, r *http.Request) {
	var req groupHeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateSubDistrictHead(requestContext(r), req.SubDistrict, req.OldName, req.NewName)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleClusterHead(w http.ResponseWriter, r *http.Request) {
	var req groupHeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateClusterHead(requestContext(r), req.Cluster, req.OldName, req.NewName)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleAddVillage(w http.ResponseWriter, r *http.Request) {
	var req addVillageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.AddVillage(requestContext(r), ledger.RosterEntry{
		Locality: ledger.Locality{
			SubDistrict: req.SubDistrict,
			Cluster:     req.Cluster,
			Village:     req.Village,
		},
		SubDistrictHead: req.SubDistrictHead,
		ClusterHead:     req.ClusterHead,
		VillageHead:     req.VillageHead,
	})
	s.respondEdit(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleDeleteVillage(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	res, err := s.service.DeleteVillage(requestContext(r), village)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleUpdateDetail(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req detailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateDetail(requestContext(r), village, req.Fields)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleUpdateDetailField(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateDetailField(requestContext(r), village, pathParam(r, "field"), req.Value)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req staffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Edits) == 0 {
		writeError(w, http.StatusBadRequest, "no edits", "BAD_REQUEST")
		return
	}
	res, err := s.service.UpdateStaff(requestContext(r), village, req.Edits)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleAddHamletHead(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req hamletHeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.AddHamletHead(requestContext(r), village, ledger.Official{
		Name:       req.Name,
		NationalID: req.NationalID,
		Gender:     ledger.ParseGender(req.Gender),
		Position:   ledger.ClassifyPosition(req.Position),
		Phone:      req.Phone,
	})
	s.respondEdit(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	res, err := s.service.DeleteStaff(requestContext(r), village, pathParam(r, "seq"))
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleUpdateCouncil(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req councilRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Edits) == 0 {
		writeError(w, http.StatusBadRequest, "no edits", "BAD_REQUEST")
		return
	}
	res, err := s.service.UpdateCouncil(requestContext(r), village, req.Edits)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleAddCouncilMember(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req councilMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.AddCouncilMember(requestContext(r), village, ledger.CouncilMember{
		Seq:        req.Seq,
		Name:       req.Name,
		GenderMark: ledger.MarkFor(ledger.ParseGender(req.Gender)),
		Remark:     req.Remark,
	})
	s.respondEdit(w, r, http.StatusCreated, res, err)
}

func (s *Server) handleDeleteCouncilMember(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	res, err := s.service.DeleteCouncilMember(requestContext(r), village, pathParam(r, "seq"))
	s.respondEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) handleCouncilSecretary(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	var req secretaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.UpdateCouncilSecretary(requestContext(r), village, req.Name, req.Title)
	s.respondEdit(w, r, http.StatusOK, res, err)
}

// handleReconcile re-propagates the detail ledger's village head.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	village, ok := requireVillage(w, r)
	if !ok {
		return
	}
	res, err := s.service.Reconcile(requestContext(r), village)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
