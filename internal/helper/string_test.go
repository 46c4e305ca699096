// internal/helper/string_test.go
package helper

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/routekeeper/internal/event"
)

func mustEvent(t *testing.T, raw string) *event.Document {
	t.Helper()
	e, err := event.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("event.Parse(%q) error = %v, want nil", raw, err)
	}
	return e
}

func mustBuild(t *testing.T, target, name string, params ...string) Term {
	t.Helper()
	term, err := DefaultRegistry().Build(Definition{TargetField: target, Name: name, RawParams: params})
	if err != nil {
		t.Fatalf("Build(%s) error = %v, want nil", name, err)
	}
	return term
}

func TestStringCase(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		data   string
		target string
		params []string
		want   string
	}{
		{name: "upper in place", op: "s_up", data: `{"a": "Hello"}`, target: "a", params: []string{"$a"}, want: "HELLO"},
		{name: "lower in place", op: "s_lo", data: `{"a": "HeLLo"}`, target: "a", params: []string{"$a"}, want: "hello"},
		{name: "upper literal", op: "s_up", data: `{}`, target: "out", params: []string{"abc"}, want: "ABC"},
		{name: "ascii only", op: "s_up", data: `{"a": "héllo"}`, target: "a", params: []string{"$a"}, want: "HéLLO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvent(t, tt.data)
			res := mustBuild(t, tt.target, tt.op, tt.params...).Apply(e)
			if !res.Success {
				t.Fatalf("Apply() failed: %s", res.Trace)
			}
			if got, _ := e.GetString("/" + tt.target); got != tt.want {
				t.Errorf("/%s = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestStringCase_MissingReference(t *testing.T) {
	e := mustEvent(t, `{}`)
	res := mustBuild(t, "out", "s_up", "$missing").Apply(e)
	if res.Success {
		t.Fatal("Apply() succeeded with a missing reference")
	}
	if !strings.Contains(res.Trace, "not found") {
		t.Errorf("trace %q does not explain the missing reference", res.Trace)
	}
}

func TestStringTrim(t *testing.T) {
	tests := []struct {
		name string
		side string
		data string
		want string
	}{
		{name: "begin", side: "begin", data: `{"a": "xxhixx"}`, want: "hixx"},
		{name: "end", side: "end", data: `{"a": "xxhixx"}`, want: "xxhi"},
		{name: "both", side: "both", data: `{"a": "xxhixx"}`, want: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvent(t, tt.data)
			res := mustBuild(t, "a", "s_trim", tt.side, "x").Apply(e)
			if !res.Success {
				t.Fatalf("Apply() failed: %s", res.Trace)
			}
			if got, _ := e.GetString("/a"); got != tt.want {
				t.Errorf("/a = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringTrim_BuildErrors(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Build(Definition{TargetField: "a", Name: "s_trim", RawParams: []string{"middle", "x"}})
	if err == nil {
		t.Error("bad trim side accepted at build time")
	}

	_, err = r.Build(Definition{TargetField: "a", Name: "s_trim", RawParams: []string{"both", "xy"}})
	if err == nil {
		t.Error("multi-char trim accepted at build time")
	}

	_, err = r.Build(Definition{TargetField: "a", Name: "s_trim", RawParams: []string{"both"}})
	if err == nil {
		t.Error("wrong arity accepted at build time")
	}
}

func TestStringConcat(t *testing.T) {
	e := mustEvent(t, `{"user": "alice", "n": 3, "d": 1.5, "obj": {"k": "v"}}`)
	res := mustBuild(t, "out", "s_concat", "pre-", "$user", "-", "$n", "-", "$d", "-", "$obj").Apply(e)
	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Trace)
	}
	want := `pre-alice-3-1.5-{"k":"v"}`
	if got, _ := e.GetString("/out"); got != want {
		t.Errorf("/out = %q, want %q", got, want)
	}
}

func TestStringConcat_Failures(t *testing.T) {
	r := DefaultRegistry()

	if _, err := r.Build(Definition{TargetField: "out", Name: "s_concat", RawParams: []string{"only-one"}}); err == nil {
		t.Error("single-parameter s_concat accepted at build time")
	}

	e := mustEvent(t, `{"arr": [1]}`)
	if res := mustBuild(t, "out", "s_concat", "a", "$missing").Apply(e); res.Success {
		t.Error("missing reference accepted at event time")
	}
	if res := mustBuild(t, "out", "s_concat", "a", "$arr").Apply(e); res.Success {
		t.Error("array reference stringified")
	}
}

func TestStringFromArray(t *testing.T) {
	e := mustEvent(t, `{"arr": ["x", "y", "z"]}`)
	res := mustBuild(t, "out", "s_from_array", "$arr", ",-").Apply(e)
	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Trace)
	}
	if got, _ := e.GetString("/out"); got != "x,-y,-z" {
		t.Errorf("/out = %q, want %q", got, "x,-y,-z")
	}
}

func TestStringFromArray_Failures(t *testing.T) {
	e := mustEvent(t, `{"arr": ["x", 1], "s": "plain"}`)
	if res := mustBuild(t, "out", "s_from_array", "$arr", ",").Apply(e); res.Success {
		t.Error("non-string element accepted")
	}
	if res := mustBuild(t, "out", "s_from_array", "$s", ",").Apply(e); res.Success {
		t.Error("non-array reference accepted")
	}
	if res := mustBuild(t, "out", "s_from_array", "$missing", ",").Apply(e); res.Success {
		t.Error("missing reference accepted")
	}
}

func TestStringFromHexa(t *testing.T) {
	e := mustEvent(t, `{"hex": "68656c6c6f"}`)
	res := mustBuild(t, "out", "s_from_hexa", "$hex").Apply(e)
	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Trace)
	}
	if got, _ := e.GetString("/out"); got != "hello" {
		t.Errorf("/out = %q, want %q", got, "hello")
	}
}

func TestStringFromHexa_OddLength(t *testing.T) {
	e := mustEvent(t, `{"hex": "deadbee"}`)
	before := e.String()
	res := mustBuild(t, "out", "s_from_hexa", "$hex").Apply(e)
	if res.Success {
		t.Fatal("odd-length hex accepted")
	}
	if e.String() != before {
		t.Error("failed decode mutated the event")
	}
}

func TestStringFromHexa_BadDigit(t *testing.T) {
	e := mustEvent(t, `{"hex": "zz"}`)
	if res := mustBuild(t, "out", "s_from_hexa", "$hex").Apply(e); res.Success {
		t.Fatal("non-hex digit accepted")
	}
}

func TestHexToNumber(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int64
		wantOK  bool
	}{
		{name: "mixed case", data: `{"a": "deadBEEF"}`, want: 3735928559, wantOK: true},
		{name: "small", data: `{"a": "ff"}`, want: 255, wantOK: true},
		{name: "trailing garbage", data: `{"a": "ffx"}`, wantOK: false},
		{name: "empty", data: `{"a": ""}`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvent(t, tt.data)
			res := mustBuild(t, "n", "s_hex_to_num", "$a").Apply(e)
			if res.Success != tt.wantOK {
				t.Fatalf("Apply() success = %v, want %v (%s)", res.Success, tt.wantOK, res.Trace)
			}
			if tt.wantOK {
				if got, _ := e.GetInt("/n"); got != tt.want {
					t.Errorf("/n = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestStringReplace(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		params []string
		want   string
	}{
		{name: "global replace", data: `{"a": "a-b-c"}`, params: []string{"-", "+"}, want: "a+b+c"},
		{name: "no re-match on insertion", data: `{"a": "aaa"}`, params: []string{"aa", "a"}, want: "aa"},
		{name: "identity", data: `{"a": "xyx"}`, params: []string{"x", "x"}, want: "xyx"},
		{name: "reference operands", data: `{"a": "one two", "old": "two", "new": "three"}`, params: []string{"$old", "$new"}, want: "one three"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEvent(t, tt.data)
			res := mustBuild(t, "a", "s_replace", tt.params...).Apply(e)
			if !res.Success {
				t.Fatalf("Apply() failed: %s", res.Trace)
			}
			if got, _ := e.GetString("/a"); got != tt.want {
				t.Errorf("/a = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringReplace_Failures(t *testing.T) {
	if _, err := DefaultRegistry().Build(Definition{TargetField: "a", Name: "s_replace", RawParams: []string{"", "new"}}); err == nil {
		t.Error("empty literal source accepted at build time")
	}

	e := mustEvent(t, `{"a": "text", "empty": ""}`)
	if res := mustBuild(t, "a", "s_replace", "$empty", "new").Apply(e); res.Success {
		t.Error("empty resolved source accepted at event time")
	}
	if res := mustBuild(t, "missing", "s_replace", "x", "y").Apply(e); res.Success {
		t.Error("missing target accepted")
	}
}

func TestSplitToArray(t *testing.T) {
	e := mustEvent(t, `{"csv": "a,b,c"}`)
	res := mustBuild(t, "out", "s_to_array", "$csv", ",").Apply(e)
	if !res.Success {
		t.Fatalf("Apply() failed: %s", res.Trace)
	}
	arr, ok := e.GetArray("/out")
	if !ok || len(arr) != 3 {
		t.Fatalf("/out = %v, want 3 elements", arr)
	}

	// Appends to an existing array
	res = mustBuild(t, "out", "s_to_array", "$csv", ",").Apply(e)
	if !res.Success {
		t.Fatalf("second Apply() failed: %s", res.Trace)
	}
	if arr, _ := e.GetArray("/out"); len(arr) != 6 {
		t.Errorf("/out has %d elements, want 6", len(arr))
	}
}

func TestSplitToArray_BuildErrors(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.Build(Definition{TargetField: "out", Name: "s_to_array", RawParams: []string{"$csv", ",,"}}); err == nil {
		t.Error("multi-char separator accepted at build time")
	}
	if _, err := r.Build(Definition{TargetField: "out", Name: "s_to_array", RawParams: []string{"literal", ","}}); err == nil {
		t.Error("literal source accepted at build time")
	}
}

// Round-trip laws over the string operators.
func TestString_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("s_from_hexa inverts hex encoding", prop.ForAll(
		func(data []byte) bool {
			e := event.New()
			e.SetString(hex.EncodeToString(data), "/hex")
			term, err := DefaultRegistry().Build(Definition{TargetField: "out", Name: "s_from_hexa", RawParams: []string{"$hex"}})
			if err != nil {
				return false
			}
			res := term.Apply(e)
			if !res.Success {
				return false
			}
			got, ok := e.GetString("/out")
			return ok && got == string(data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("s_from_array inverts s_to_array", prop.ForAll(
		func(elems []string) bool {
			for _, s := range elems {
				if strings.Contains(s, ",") || s == "" {
					return true
				}
			}
			if len(elems) == 0 {
				return true
			}
			joined := strings.Join(elems, ",")

			e := event.New()
			e.SetString(joined, "/src")
			reg := DefaultRegistry()
			split, _ := reg.Build(Definition{TargetField: "arr", Name: "s_to_array", RawParams: []string{"$src", ","}})
			if !split.Apply(e).Success {
				return false
			}
			join, _ := reg.Build(Definition{TargetField: "out", Name: "s_from_array", RawParams: []string{"$arr", ","}})
			if !join.Apply(e).Success {
				return false
			}
			got, ok := e.GetString("/out")
			return ok && got == joined
		},
		gen.SliceOf(gen.RegexMatch("[a-z]{1,6}")),
	))

	properties.Property("s_replace with identical operands is identity", prop.ForAll(
		func(s, needle string) bool {
			if needle == "" || s == "" {
				return true
			}
			e := event.New()
			e.SetString(s, "/a")
			term, err := DefaultRegistry().Build(Definition{TargetField: "a", Name: "s_replace", RawParams: []string{needle, needle}})
			if err != nil {
				return false
			}
			if !term.Apply(e).Success {
				return false
			}
			got, ok := e.GetString("/a")
			return ok && got == s
		},
		gen.AnyString(), gen.RegexMatch("[a-z]{1,4}"),
	))

	properties.TestingRun(t)
}
