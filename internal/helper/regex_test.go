// internal/helper/regex_test.go
package helper

import (
	"testing"
)

func TestRegexExtract(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		regex  string
		want   string
		wantOK bool
	}{
		{
			name:   "first capture group",
			data:   `{"msg": "user=alice uid=1000"}`,
			regex:  `user=(\w+)`,
			want:   "alice",
			wantOK: true,
		},
		{
			name:   "partial match mid-string",
			data:   `{"msg": "prefix code=42 suffix"}`,
			regex:  `code=(\d+)`,
			want:   "42",
			wantOK: true,
		},
		{
			name:   "no match",
			data:   `{"msg": "nothing here"}`,
			regex:  `user=(\w+)`,
			wantOK: false,
		},
		{
			name:   "match without capture group",
			data:   `{"msg": "user=alice"}`,
			regex:  `user=\w+`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvent(t, tt.data)
			res := mustBuild(t, "out", "r_ext", "$msg", tt.regex).Apply(e)
			if res.Success != tt.wantOK {
				t.Fatalf("Apply() success = %v, want %v (%s)", res.Success, tt.wantOK, res.Trace)
			}
			if tt.wantOK {
				if got, _ := e.GetString("/out"); got != tt.want {
					t.Errorf("/out = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestRegexExtract_BuildErrors(t *testing.T) {
	r := DefaultRegistry()

	if _, err := r.Build(Definition{TargetField: "out", Name: "r_ext", RawParams: []string{"$msg", "("}}); err == nil {
		t.Error("malformed regex accepted at build time")
	}
	if _, err := r.Build(Definition{TargetField: "out", Name: "r_ext", RawParams: []string{"literal", "(x)"}}); err == nil {
		t.Error("literal source accepted at build time")
	}
}

func TestRegexExtract_MissingSource(t *testing.T) {
	e := mustEvent(t, `{}`)
	if res := mustBuild(t, "out", "r_ext", "$msg", "(x)").Apply(e); res.Success {
		t.Error("missing source accepted at event time")
	}
}
