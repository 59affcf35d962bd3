package scad

import (
	"strings"
	"testing"
)

func TestCheck_Valid(t *testing.T) {
	script := "difference() {\n  cube([1, 2, 3]);\n  translate([0, 0, 1]) cube([1, 1, 1]);\n}\n"
	if err := Check(script); err != nil {
		t.Errorf("expected valid script, got %v", err)
	}
}

func TestCheck_Unbalanced(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"unclosed brace", "difference() {\n  cube([1, 1, 1]);\n", "line 1: unclosed '{'"},
		{"stray bracket", "cube([1, 1, 1]]);", "line 1: unexpected ']'"},
		{"mismatched", "union() {\n  cube([1, 1, 1)];\n}", "line 2: unexpected ')'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.script)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestCheck_IgnoresComments(t *testing.T) {
	script := "// cube( is not a solid here {\ncube([1, 1, 1]);\n"
	if err := Check(script); err != nil {
		t.Errorf("comments should be ignored, got %v", err)
	}
}

func TestCheck_NoSolids(t *testing.T) {
	if err := Check("union() {\n}\n"); err == nil {
		t.Error("expected error for script without solids")
	}
}

func TestParse_Counts(t *testing.T) {
	script := `union() {
  difference() {
    cube([10, 10, 5]);
    translate([1, 1, 1]) cube([8, 8, 4]);
  }
  translate([5, 5, 1]) cylinder(h=2, r=1, $fn=16);
}`
	s := Parse(script)
	if s.Cubes != 2 || s.Cylinders != 1 || s.Translates != 2 || s.Differences != 1 || s.Unions != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}
