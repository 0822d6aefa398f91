package domain

import "testing"

func TestMacroTableForStatus(t *testing.T) {
	rule, ok := DefaultMacroTable.ForStatus(TicketStatusOpen)
	if !ok || rule.ID != 22998852854167 {
		t.Fatalf("open rule = %+v, %v", rule, ok)
	}
	if _, ok := DefaultMacroTable.ForStatus(TicketStatusPending); ok {
		t.Fatalf("pending has no macro")
	}

	table := MacroTable{
		{ID: 1, TriggerStatus: TicketStatusNew},
		{ID: 2, TriggerStatus: TicketStatusNew},
	}
	if rule, _ := table.ForStatus(TicketStatusNew); rule.ID != 1 {
		t.Fatalf("first match should win, got %d", rule.ID)
	}
}

func TestLatestPublicComment(t *testing.T) {
	private := false
	comments := []Comment{
		{ID: 1, Body: "hello"},
		{ID: 2, Body: "we are on it"},
		{ID: 3, Body: "internal note", Public: &private},
	}
	c, ok := LatestPublicComment(comments)
	if !ok || c.ID != 2 {
		t.Fatalf("latest public = %+v, %v", c, ok)
	}
	if _, ok := LatestPublicComment([]Comment{{ID: 1, Public: &private}}); ok {
		t.Fatalf("no public comment expected")
	}
}

func TestResolveField(t *testing.T) {
	meta := FormMetadata{
		DropdownOptions: map[string][]string{"100": {"Acme", "Globex"}},
		FieldMapping:    map[string]FieldInfo{"100": {Title: "Client Name"}, "200": {Title: "Sources"}},
	}
	client := ResolveField(ConfigurableFields[0], "100", meta)
	if client.Kind != FieldKindDropdown || client.Label != "Client Name" || len(client.Options) != 2 || !client.Required {
		t.Fatalf("client descriptor = %+v", client)
	}
	sources := ResolveField(ConfigurableFields[1], "200", meta)
	if sources.Kind != FieldKindFreeText || sources.Label != "Sources" {
		t.Fatalf("sources descriptor = %+v", sources)
	}
	unconfigured := ResolveField(ConfigurableFields[2], "", meta)
	if unconfigured.Kind != FieldKindFreeText || unconfigured.Label != "Attack Vector" {
		t.Fatalf("unconfigured descriptor = %+v", unconfigured)
	}
}

func TestPayloadNormalizationAndRequired(t *testing.T) {
	p := TicketPayload{Subject: "  Spam ", Description: " ", Client: "Acme"}.Normalized()
	if p.Subject != "Spam" {
		t.Fatalf("subject not trimmed: %q", p.Subject)
	}
	missing := p.MissingRequired()
	if len(missing) != 1 || missing[0] != "description" {
		t.Fatalf("missing = %v", missing)
	}
	if p.HasPhone() {
		t.Fatalf("no phone expected")
	}
}
