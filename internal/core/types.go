package core

import (
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/reconcile"
)

// Dataset holds all four ledgers.
type Dataset struct {
	Roster  []ledger.RosterEntry   `json:"roster"`
	Details []ledger.Official      `json:"details"`
	Staff   []ledger.Official      `json:"staff"`
	Council []ledger.CouncilMember `json:"council"`
}

// Statistics summarises the ledgers.
type Statistics struct {
	SubDistricts int `json:"subDistricts"`
	Clusters     int `json:"clusters"`
	Villages     int `json:"villages"`
	VillageHeads int `json:"villageHeads"`
	Staff        int `json:"staff"`
	Council      int `json:"council"`
}

// EditResult reports a completed edit.
type EditResult struct {
	Ledger  ledger.Kind `json:"ledger"`
	Village string      `json:"village"`
	// Cells is the number of cells written in Ledger.
	Cells int `json:"cells"`
	// Row and Seq are set by inserts.
	Row int `json:"row,omitempty"`
	Seq int `json:"seq,omitempty"`
	// Propagation is set when the edit touched village-head fields.
	Propagation *reconcile.Result `json:"propagation,omitempty"`
}

// StaffEdit changes columns of one staff row, identified by its NO_URUT.
type StaffEdit struct {
	Seq    string            `json:"seq"`
	Fields map[string]string `json:"fields"`
}

// CouncilEdit changes one council member, identified by its NO_ANGGOTA.
// Nil fields are left alone.
type CouncilEdit struct {
	Seq    string  `json:"seq"`
	Name   *string `json:"name,omitempty"`
	Gender *string `json:"gender,omitempty"`
	Remark *string `json:"remark,omitempty"`
}

// DetailColumns are the editable detail ledger columns.
var DetailColumns = []string{
	ledger.ColVillageCode, ledger.ColName, ledger.ColBirthDay, ledger.ColBirthMonth, ledger.ColBirthYear,
	ledger.ColGender, ledger.ColEducation, ledger.ColDecreeNumber, ledger.ColDecreeDate,
	ledger.ColPosition, ledger.ColPhone,
}

// StaffColumns are the editable staff ledger columns.
var StaffColumns = []string{
	ledger.ColVillageCode, ledger.ColSeq, ledger.ColName, ledger.ColNationalID,
	ledger.ColGender, ledger.ColPosition, ledger.ColPhone,
}
