package domain

// FieldKind tags a FieldDescriptor.
type FieldKind string

const (
	FieldKindDropdown FieldKind = "dropdown"
	FieldKindFreeText FieldKind = "free_text"
)

// FieldDescriptor says how a form field is rendered. Options is only set
// for dropdowns.
type FieldDescriptor struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	FieldID  string    `json:"field_id,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

// FieldInfo is the middleware's metadata for one platform field.
type FieldInfo struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// FormMetadata is the middleware's form-field catalog, keyed by platform field id.
type FormMetadata struct {
	DropdownOptions map[string][]string  `json:"dropdown_options"`
	FieldMapping    map[string]FieldInfo `json:"field_mapping"`
}

// LogicalField is a form field whose rendering depends on platform metadata.
type LogicalField struct {
	Name          string
	FallbackLabel string
	Required      bool
}

// ConfigurableFields are resolved against the configured field ids, in form order.
var ConfigurableFields = []LogicalField{
	{Name: "client", FallbackLabel: "Client", Required: true},
	{Name: "sources", FallbackLabel: "Sources"},
	{Name: "attack_vector", FallbackLabel: "Attack Vector"},
	{Name: "call_to_action", FallbackLabel: "Call To Action"},
	{Name: "resolution", FallbackLabel: "Resolution"},
	{Name: "escalate_to", FallbackLabel: "Escalate To"},
}

// ResolveField builds the descriptor for a logical field given its platform
// field id (may be empty) and the fetched metadata.
func ResolveField(field LogicalField, fieldID string, meta FormMetadata) FieldDescriptor {
	desc := FieldDescriptor{
		Name:     field.Name,
		Label:    field.FallbackLabel,
		Kind:     FieldKindFreeText,
		FieldID:  fieldID,
		Required: field.Required,
	}
	if fieldID == "" {
		return desc
	}
	if info, ok := meta.FieldMapping[fieldID]; ok && info.Title != "" {
		desc.Label = info.Title
	}
	if opts := meta.DropdownOptions[fieldID]; len(opts) > 0 {
		desc.Kind = FieldKindDropdown
		desc.Options = append([]string(nil), opts...)
	}
	return desc
}

// FreeTextField builds a descriptor for a field that is always free text.
func FreeTextField(name, label string, required bool) FieldDescriptor {
	return FieldDescriptor{Name: name, Label: label, Kind: FieldKindFreeText, Required: required}
}
