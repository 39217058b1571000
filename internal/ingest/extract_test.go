package ingest

import "testing"

func TestExtract_Enrollment(t *testing.T) {
	rec := RawRecord{"age_0_5": "10", "age_5_17": "20", "age_18_greater": "70"}

	f := Extract(rec, DataEnrollment)
	if f.Age0to5 != 10 || f.Age5to17 != 20 || f.Age18Plus != 70 {
		t.Errorf("fields = %+v", f)
	}
	if f.Total != 100 {
		t.Errorf("Total = %d, want 100", f.Total)
	}
}

func TestExtract_AlternateColumnSpelling(t *testing.T) {
	tests := []struct {
		name string
		dt   DataType
		rec  RawRecord
	}{
		{"demographic plus word", DataDemographic, RawRecord{"demo_age_5_17": "5", "demo_age_17_plus": "15"}},
		{"demographic plus sign", DataDemographic, RawRecord{"demo_age_5_17": "5", "demo_age_17_+": "15"}},
		{"biometric plus word", DataBiometric, RawRecord{"bio_age_5_17": "5", "bio_age_17_plus": "15"}},
		{"biometric plus sign", DataBiometric, RawRecord{"bio_age_5_17": "5", "bio_age_17_+": "15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.rec, tt.dt)
			if f.Age5to17 != 5 || f.Age17Plus != 15 {
				t.Errorf("fields = %+v, want Age5to17=5 Age17Plus=15", f)
			}
			if f.Total != 20 {
				t.Errorf("Total = %d, want 20", f.Total)
			}
		})
	}
}

func TestExtract_PrimarySpellingWins(t *testing.T) {
	rec := RawRecord{"demo_age_5_17": "1", "demo_age_17_plus": "9", "demo_age_17_+": "99"}

	f := Extract(rec, DataDemographic)
	if f.Age17Plus != 9 {
		t.Errorf("Age17Plus = %d, want 9 (first candidate column wins)", f.Age17Plus)
	}
}

func TestExtract_ZeroDefaults(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
	}{
		{"missing columns", RawRecord{"state": "Kerala"}},
		{"non-numeric values", RawRecord{"age_0_5": "abc", "age_5_17": "1.5x", "age_18_greater": "-"}},
		{"empty cell placeholder", RawRecord{"age_0_5": "0", "age_5_17": "0", "age_18_greater": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.rec, DataEnrollment)
			if f.Age0to5 != 0 || f.Age5to17 != 0 || f.Age18Plus != 0 || f.Total != 0 {
				t.Errorf("fields = %+v, want all zero", f)
			}
		})
	}
}

func TestParseDataType(t *testing.T) {
	for _, valid := range []string{"enrollment", "demographic", "biometric"} {
		if _, err := ParseDataType(valid); err != nil {
			t.Errorf("ParseDataType(%q) error: %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "Enrollment", "births", "enrolment"} {
		if _, err := ParseDataType(invalid); err == nil {
			t.Errorf("ParseDataType(%q) = nil error, want ErrUnsupportedDataType", invalid)
		}
	}
}
