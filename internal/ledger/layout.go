package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column names shared by several ledgers.
const (
	ColNo           = "NO"
	ColSubDistrict  = "KECAMATAN"
	ColSubHead      = "NAMA_CAMAT"
	ColCluster      = "KEMUKIMAN"
	ColClusterHead  = "NAMA_MUKIM"
	ColVillage      = "GAMPONG"
	ColVillageHead  = "NAMA_GEUCHIK"
	ColProvinceCode = "NO_PROV"
	ColProvince     = "PROVINSI"
	ColRegencyCode  = "NO_KAB"
	ColRegency      = "KABUPATEN"
	ColSubCode      = "NO_KEC"
	ColVillageCode  = "NO_DESA"
	ColDesa         = "DESA"
	ColName         = "NAMA_LENGKAP"
	ColBirthDay     = "TGL_LAHIR"
	ColBirthMonth   = "BLN_LAHIR"
	ColBirthYear    = "THN_LAHIR"
	ColGender       = "JENIS_KELAMIN"
	ColEducation    = "PENDIDIKAN"
	ColDecreeNumber = "SK_NOMOR"
	ColDecreeDate   = "SK_TANGGAL"
	ColPosition     = "JABATAN"
	ColPhone        = "NO_HP"
	ColCategory     = "KATEGORI"
	ColCategoryName = "JENIS"
	ColSeq          = "NO_URUT"
	ColNationalID   = "NIK"
	ColClusterCode  = "NO_KEMUKIMAN"
	ColVillageNo    = "NO_GAMPONG"
	ColMemberNo     = "NO_ANGGOTA"
	ColMemberName   = "NAMA_ANGGOTA"
	ColMale         = "LAKI_LAKI"
	ColFemale       = "PEREMPUAN"
	ColRemark       = "KETERANGAN"
)

// Sentinel is a header text that leaks into data rows when a sheet's header
// block is taller than configured. Rows holding Value in Column are dropped.
type Sentinel struct {
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
}

// Layout describes where a ledger lives and how its rows are shaped.
//
// Columns, FillColumns and MergeColumns are fixed per Kind. Sheet names,
// header offsets, export templates and start rows may be overridden.
type Layout struct {
	Kind Kind
	// Sheet is the worksheet (or backend table) name.
	Sheet string
	// HeaderRows is the number of title and header rows before data.
	HeaderRows int
	// Columns is the physical column order; Columns[0] is column 1.
	Columns []string
	// FillColumns are forward-filled, outermost level first.
	FillColumns []string
	// MergeColumns are written once per village group on export.
	MergeColumns []string
	// SubDistrictColumn must hold a known sub-district for a row to survive.
	SubDistrictColumn string
	// KeyColumn holds the village name rows are grouped by.
	KeyColumn string
	// SeqColumn disambiguates rows of one village; empty when the ledger has one row per village.
	SeqColumn string
	Sentinels []Sentinel

	// ExportTemplate is the template workbook file name inside the template directory.
	ExportTemplate string
	// ExportFile is the file name used inside export bundles.
	ExportFile string
	// ExportStartRow is the first data row of the exported sheet.
	ExportStartRow int
}

// Col returns the 1-indexed column of name, or 0 when the ledger has no such column.
func (l Layout) Col(name string) int {
	for i, c := range l.Columns {
		if c == name {
			return i + 1
		}
	}
	return 0
}

// Cols maps names to column numbers, skipping unknown names.
func (l Layout) Cols(names []string) []int {
	out := make([]int, 0, len(names))
	for _, n := range names {
		if c := l.Col(n); c > 0 {
			out = append(out, c)
		}
	}
	return out
}

// DataStart is the first grid row holding data.
func (l Layout) DataStart() int {
	return l.HeaderRows + 1
}

// Width is the number of columns in the layout.
func (l Layout) Width() int {
	return len(l.Columns)
}

// Layouts holds the layout of every ledger.
type Layouts map[Kind]Layout

// Get returns the layout for k. It panics on an unknown kind, which only a
// programming error can produce.
func (ls Layouts) Get(k Kind) Layout {
	l, ok := ls[k]
	if !ok {
		panic(fmt.Sprintf("ledger: no layout for %q", k))
	}
	return l
}

// DefaultLayouts returns the layouts of the Langsa workbooks.
func DefaultLayouts() Layouts {
	return Layouts{
		Roster: {
			Kind:              Roster,
			Sheet:             "Camat_Mukim_Geuchik",
			HeaderRows:        1,
			Columns:           []string{ColNo, ColSubDistrict, ColSubHead, ColCluster, ColClusterHead, ColVillage, ColVillageHead},
			FillColumns:       []string{ColSubDistrict, ColSubHead, ColCluster, ColClusterHead},
			SubDistrictColumn: ColSubDistrict,
			KeyColumn:         ColVillage,
			Sentinels:         []Sentinel{{Column: ColVillage, Value: ColVillage}},
			ExportTemplate:    "data_(camat,mukim,dan geuchik).xlsx",
			ExportFile:        "Data_Camat_Mukim_Geuchik.xlsx",
			ExportStartRow:    2,
		},
		Detail: {
			Kind:       Detail,
			Sheet:      "Geuchik_Detail",
			HeaderRows: 3,
			Columns: []string{
				ColProvinceCode, ColProvince, ColRegencyCode, ColRegency, ColSubCode, ColSubDistrict,
				ColVillageCode, ColDesa, ColName, ColBirthDay, ColBirthMonth, ColBirthYear,
				ColGender, ColEducation, ColDecreeNumber, ColDecreeDate, ColPosition, ColPhone,
			},
			FillColumns:       []string{ColProvinceCode, ColProvince, ColRegencyCode, ColRegency, ColSubCode, ColSubDistrict},
			SubDistrictColumn: ColSubDistrict,
			KeyColumn:         ColDesa,
			Sentinels:         []Sentinel{{Column: ColDesa, Value: ColDesa}, {Column: ColPosition, Value: ColPosition}},
			ExportTemplate:    "data_(geuchik kota langsa).xlsx",
			ExportFile:        "Data_Detail_Geuchik.xlsx",
			ExportStartRow:    4,
		},
		Staff: {
			Kind:       Staff,
			Sheet:      "Perangkat_Desa",
			HeaderRows: 5,
			Columns: []string{
				ColProvinceCode, ColProvince, ColRegencyCode, ColRegency, ColSubCode, ColSubDistrict,
				ColVillageCode, ColDesa, ColCategory, ColCategoryName, ColSeq, ColName,
				ColNationalID, ColGender, ColPosition, ColPhone,
			},
			FillColumns: []string{
				ColProvinceCode, ColProvince, ColRegencyCode, ColRegency, ColSubCode, ColSubDistrict,
				ColVillageCode, ColDesa,
			},
			MergeColumns: []string{
				ColProvinceCode, ColProvince, ColRegencyCode, ColRegency, ColSubCode, ColSubDistrict,
				ColVillageCode, ColDesa,
			},
			SubDistrictColumn: ColSubDistrict,
			KeyColumn:         ColDesa,
			SeqColumn:         ColSeq,
			Sentinels:         []Sentinel{{Column: ColPosition, Value: ColPosition}, {Column: ColSeq, Value: ColNo}, {Column: ColDesa, Value: ColDesa}},
			ExportTemplate:    "data_(kepala desa & perangkat desa).xlsx",
			ExportFile:        "Data_Perangkat_Desa.xlsx",
			ExportStartRow:    6,
		},
		Council: {
			Kind:       Council,
			Sheet:      "Tuha_Peuet",
			HeaderRows: 7,
			Columns: []string{
				ColNo, ColSubDistrict, ColClusterCode, ColCluster, ColVillageNo, ColVillage,
				ColMemberNo, ColMemberName, ColMale, ColFemale, ColRemark,
			},
			// NO numbers villages, so it sits at the village level of the fill hierarchy.
			FillColumns: []string{ColSubDistrict, ColClusterCode, ColCluster, ColNo, ColVillageNo, ColVillage},
			// The village column also carries the secretary lines, so it is never merged.
			MergeColumns:      []string{ColNo, ColSubDistrict, ColClusterCode, ColCluster, ColVillageNo},
			SubDistrictColumn: ColSubDistrict,
			KeyColumn:         ColVillage,
			SeqColumn:         ColMemberNo,
			Sentinels:         []Sentinel{{Column: ColMemberNo, Value: ColNo}, {Column: ColVillage, Value: ColVillage}},
			ExportTemplate:    "data_(tuha peuet gampong).xlsx",
			ExportFile:        "Data_Tuha_Peuet.xlsx",
			ExportStartRow:    8,
		},
	}
}

// layoutOverride is the YAML shape of one ledger's configurable settings.
type layoutOverride struct {
	Sheet          *string    `yaml:"sheet"`
	HeaderRows     *int       `yaml:"header_rows"`
	ExportTemplate *string    `yaml:"export_template"`
	ExportFile     *string    `yaml:"export_file"`
	ExportStartRow *int       `yaml:"export_start_row"`
	Sentinels      []Sentinel `yaml:"sentinels"`
}

// LoadLayouts returns DefaultLayouts with the overrides in the YAML file at
// path applied. An empty path returns the defaults unchanged.
//
// The file maps ledger names to overrides:
//
//	staff:
//	  sheet: Perangkat_Desa
//	  header_rows: 6
func LoadLayouts(path string) (Layouts, error) {
	layouts := DefaultLayouts()
	if path == "" {
		return layouts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}
	if err := layouts.ApplyYAML(data); err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}
	return layouts, nil
}

// ApplyYAML applies YAML-encoded overrides to ls in place.
func (ls Layouts) ApplyYAML(data []byte) error {
	var overrides map[string]layoutOverride
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse layouts: %w", err)
	}

	var errs []string
	for name, o := range overrides {
		k, err := ParseKind(name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		l := ls[k]
		if o.Sheet != nil {
			l.Sheet = *o.Sheet
		}
		if o.HeaderRows != nil {
			if *o.HeaderRows < 0 {
				errs = append(errs, fmt.Sprintf("%s: header_rows must be >= 0", k))
			}
			l.HeaderRows = *o.HeaderRows
		}
		if o.ExportTemplate != nil {
			l.ExportTemplate = *o.ExportTemplate
		}
		if o.ExportFile != nil {
			l.ExportFile = *o.ExportFile
		}
		if o.ExportStartRow != nil {
			if *o.ExportStartRow < 1 {
				errs = append(errs, fmt.Sprintf("%s: export_start_row must be >= 1", k))
			}
			l.ExportStartRow = *o.ExportStartRow
		}
		for _, s := range o.Sentinels {
			if l.Col(s.Column) == 0 {
				errs = append(errs, fmt.Sprintf("%s: sentinel column %q not in layout", k, s.Column))
				continue
			}
			l.Sentinels = append(l.Sentinels, s)
		}
		ls[k] = l
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid layout overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}
