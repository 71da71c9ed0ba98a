package graph

import "testing"

func TestKindFromLabels(t *testing.T) {
	cases := []struct {
		labels []string
		want   NodeKind
	}{
		{[]string{"Function", IndexLabel}, KindFunction},
		{[]string{IndexLabel, "Endpoint"}, KindEndpoint},
		{[]string{IndexLabel}, KindUnknown},
		{nil, KindUnknown},
	}
	for _, tc := range cases {
		if got := KindFromLabels(tc.labels); got != tc.want {
			t.Errorf("KindFromLabels(%v) = %q, want %q", tc.labels, got, tc.want)
		}
	}
}

func TestNodeKind_IsTest(t *testing.T) {
	for _, k := range []NodeKind{KindTest, KindIntegrationTest, KindE2eTest} {
		if !k.IsTest() {
			t.Errorf("Expected %q to be a test kind", k)
		}
	}
	if KindFunction.IsTest() {
		t.Error("Expected Function not to be a test kind")
	}
}

func TestRelationshipFilter(t *testing.T) {
	down := relationshipFilter(DirectionDown)
	if down != "RENDERS>|CALLS>|CONTAINS>|HANDLER>|<OPERAND" {
		t.Errorf("Unexpected down filter: %s", down)
	}
	up := relationshipFilter(DirectionUp)
	if up != "<RENDERS|<CALLS|<CONTAINS|<HANDLER|OPERAND>" {
		t.Errorf("Unexpected up filter: %s", up)
	}
}
