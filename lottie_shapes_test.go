package animir

import (
	"encoding/json"
	"testing"
)

func TestParseShapeItemsRoutesByType(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"ty":"fl","c":{"k":[1,0,0]},"o":{"k":100}}`),
		json.RawMessage(`{"ty":"st","c":{"k":[0,0,0]},"o":{"k":100},"w":{"k":2},"lc":1,"lj":1,"ml":4}`),
		json.RawMessage(`{"ty":"rc","p":{"k":[0,0]},"s":{"k":[10,10]},"r":{"k":0}}`),
		json.RawMessage(`{"ty":"el","p":{"k":[0,0]},"s":{"k":[10,10]}}`),
		json.RawMessage(`{"ty":"sr","sy":1,"pt":{"k":5},"p":{"k":[0,0]},"r":{"k":0},"ir":{"k":5},"is":{"k":0},"or":{"k":10},"os":{"k":0}}`),
		json.RawMessage(`{"ty":"sh","ks":{"k":{"v":[[0,0]],"i":[[0,0]],"o":[[0,0]],"c":true}}}`),
		json.RawMessage(`{"ty":"tr","p":{"k":[0,0]},"a":{"k":[0,0]},"s":{"k":[100,100]},"r":{"k":0},"o":{"k":100}}`),
		json.RawMessage(`{"ty":"tm"}`),
	}
	items, err := ParseShapeItems(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantTypes := []string{"fl", "st", "rc", "el", "sr", "sh", "tr", "tm"}
	if len(items) != len(wantTypes) {
		t.Fatalf("expected %d items, got %d", len(wantTypes), len(items))
	}
	for i, item := range items {
		if item.ShapeType() != wantTypes[i] {
			t.Errorf("item %d: got type %q, want %q", i, item.ShapeType(), wantTypes[i])
		}
	}
	if _, ok := items[7].(LottieShapeUnknown); !ok {
		t.Error("expected tm item to decode as LottieShapeUnknown")
	}
}

func TestParseShapeItemsRecursesIntoGroups(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"ty":"gr","it":[{"ty":"fl","c":{"k":[0,1,0]},"o":{"k":100}}]}`),
	}
	items, err := ParseShapeItems(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	group, ok := items[0].(LottieShapeGroup)
	if !ok {
		t.Fatalf("expected a group, got %T", items[0])
	}
	if len(group.Items) != 1 || group.Items[0].ShapeType() != "fl" {
		t.Errorf("unexpected group contents: %+v", group.Items)
	}
}

func TestParseShapeItemsPropagatesDecodeErrors(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`not json`)}
	if _, err := ParseShapeItems(raw); err == nil {
		t.Error("expected an error for malformed shape item json")
	}
}

func TestDirectionOrDefault(t *testing.T) {
	if directionOrDefault(0) != 1 {
		t.Error("expected 0 to default to 1")
	}
	if directionOrDefault(2) != 2 {
		t.Error("expected explicit direction to pass through")
	}
}
