package ledger

import "strings"

// Gender is the binary gender of an official.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
)

// ParseGender accepts ledger codes (L/P), enum codes (M/F) and the spelled out words.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L", "M", "LAKI-LAKI", "LAKI LAKI", "LAKI_LAKI", "MALE":
		return GenderMale
	case "P", "F", "PEREMPUAN", "FEMALE", "WANITA":
		return GenderFemale
	}
	return GenderUnknown
}

// Code returns the ledger code: L or P.
func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return "L"
	case GenderFemale:
		return "P"
	}
	return ""
}

// GenderMark records which of the council ledger's two gender columns is ticked.
type GenderMark string

const (
	MarkNone   GenderMark = ""
	MarkMale   GenderMark = "male-column"
	MarkFemale GenderMark = "female-column"
)

// CheckMark is the tick written into council gender columns.
const CheckMark = "✓"

// Gender converts the mark to the enum form.
func (m GenderMark) Gender() Gender {
	switch m {
	case MarkMale:
		return GenderMale
	case MarkFemale:
		return GenderFemale
	}
	return GenderUnknown
}

// MarkFor converts a gender to its council mark.
func MarkFor(g Gender) GenderMark {
	switch g {
	case GenderMale:
		return MarkMale
	case GenderFemale:
		return MarkFemale
	}
	return MarkNone
}

// Locality is the administrative chain a record belongs to.
type Locality struct {
	// Number is the running number a ledger gives the locality group.
	Number          string `json:"number,omitempty"`
	ProvinceCode    string `json:"provinceCode,omitempty"`
	Province        string `json:"province,omitempty"`
	RegencyCode     string `json:"regencyCode,omitempty"`
	Regency         string `json:"regency,omitempty"`
	SubDistrictCode string `json:"subDistrictCode,omitempty"`
	SubDistrict     string `json:"subDistrict"`
	ClusterCode     string `json:"clusterCode,omitempty"`
	Cluster         string `json:"cluster,omitempty"`
	VillageNo       string `json:"villageNo,omitempty"`
	VillageCode     string `json:"code,omitempty"`
	Village         string `json:"name"`
}

// Key returns the outer-to-inner sort key of the locality.
func (l Locality) Key() []string {
	return []string{l.SubDistrict, l.Cluster, l.Village}
}

// RosterEntry is one row of the roster ledger.
type RosterEntry struct {
	Row             int      `json:"row"`
	No              *int     `json:"no"`
	Locality        Locality `json:"locality"`
	SubDistrictHead string   `json:"subDistrictHead"`
	ClusterHead     string   `json:"clusterHead"`
	VillageHead     string   `json:"villageHead"`
}

// Official is a person holding one position in one village, read from the
// detail or staff ledger.
type Official struct {
	Row          int      `json:"row"`
	Locality     Locality `json:"locality"`
	Name         string   `json:"name"`
	NationalID   string   `json:"nationalId,omitempty"`
	Gender       Gender   `json:"gender,omitempty"`
	Position     Position `json:"position"`
	Phone        string   `json:"phone,omitempty"`
	Seq          *int     `json:"sequenceNo,omitempty"`
	BirthDay     string   `json:"birthDay,omitempty"`
	BirthMonth   string   `json:"birthMonth,omitempty"`
	BirthYear    string   `json:"birthYear,omitempty"`
	Education    string   `json:"education,omitempty"`
	DecreeNumber string   `json:"decreeNumber,omitempty"`
	DecreeDate   string   `json:"decreeDate,omitempty"`
}

// IsGhost reports whether the record carries neither a name nor a position.
func (o Official) IsGhost() bool {
	return strings.TrimSpace(o.Name) == "" && strings.TrimSpace(o.Position.Title) == ""
}

// Secretary is the council secretary of one village.
type Secretary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	// TitleRow and NameRow are the grid rows the pair was read from, 0 when unknown.
	TitleRow int `json:"titleRow,omitempty"`
	NameRow  int `json:"nameRow,omitempty"`
}

// DefaultSecretaryTitle is used when a secretary has no title line.
const DefaultSecretaryTitle = "Sekretaris TPG"

// CouncilMember is one numbered Tuha Peuet member.
type CouncilMember struct {
	Row        int        `json:"row"`
	Locality   Locality   `json:"locality"`
	Seq        *int       `json:"sequenceNo"`
	Name       string     `json:"name"`
	GenderMark GenderMark `json:"genderMark,omitempty"`
	Remark     string     `json:"remark,omitempty"`
	Secretary  *Secretary `json:"secretary,omitempty"`
}

// IsGhost reports whether the member row carries no name.
func (m CouncilMember) IsGhost() bool {
	return strings.TrimSpace(m.Name) == ""
}
