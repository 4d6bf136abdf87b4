package core

import (
	"errors"
	"testing"

	"github.com/dpmglangsa/gampong/internal/ledger"
)

func TestValidateCell(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		value   string
		want    string
		wantErr bool
	}{
		{"phone kept as text", ledger.ColPhone, "812345.0", "812345", false},
		{"gender word", ledger.ColGender, "perempuan", "P", false},
		{"bad gender", ledger.ColGender, "X", "", true},
		{"day padded", ledger.ColBirthDay, "5", "05", false},
		{"month out of range", ledger.ColBirthMonth, "13", "", true},
		{"short year", ledger.ColBirthYear, "70", "", true},
		{"sequence", ledger.ColSeq, "4.0", "4", false},
		{"zero sequence", ledger.ColSeq, "0", "", true},
		{"education alias", ledger.ColEducation, "slta", "SMA", false},
		{"education canonical", ledger.ColEducation, "S1", "S1", false},
		{"unknown education", ledger.ColEducation, "PESANTREN KILAT", "", true},
		{"clear optional column", ledger.ColEducation, "  ", "", false},
		{"clear phone", ledger.ColPhone, "", "", false},
		{"clear sequence", ledger.ColSeq, "", "", true},
		{"clear member number", ledger.ColMemberNo, " ", "", true},
		{"clear roster number", ledger.ColNo, "", "", true},
		{"clear village", ledger.ColVillage, "", "", true},
		{"clear desa", ledger.ColDesa, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCell(tt.column, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCell(%s, %q) error = %v, wantErr %v", tt.column, tt.value, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("error %v does not wrap ErrInvalidValue", err)
			}
			if got != tt.want {
				t.Errorf("ValidateCell(%s, %q) = %q, want %q", tt.column, tt.value, got, tt.want)
			}
		})
	}
}
