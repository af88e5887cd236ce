package techniques

import (
	"reflect"
	"testing"

	"github.com/samcharles93/glb/pkg/gltf"
)

func mustParse(t *testing.T, text string) gltf.Document {
	t.Helper()
	doc, err := gltf.ParseJSON([]byte(text))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func path(t *testing.T, v any, keys ...any) any {
	t.Helper()
	cur := v
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				t.Fatalf("expected object at %v, got %T", key, cur)
			}
			cur = m[key]
		case int:
			a, ok := cur.([]any)
			if !ok || key >= len(a) {
				t.Fatalf("expected array with index %d, got %#v", key, cur)
			}
			cur = a[key]
		}
	}
	return cur
}

const legacyDoc = `{
	"extensionsUsed": ["KHR_materials_common", "KHR_technique_webgl"],
	"extensionsRequired": ["KHR_technique_webgl"],
	"programs": [{"vertexShader": 0, "fragmentShader": 1}],
	"shaders": [{"type": 35633, "uri": "vs.glsl"}, {"type": 35632, "uri": "fs.glsl"}],
	"techniques": [{
		"program": 0,
		"attributes": {"a_position": "position"},
		"uniforms": {"u_diffuse": "diffuse", "u_modelView": "modelView"},
		"parameters": {
			"position": {"type": 35665, "semantic": "POSITION"},
			"diffuse": {"type": 35666},
			"modelView": {"type": 35676, "semantic": "MODELVIEW"}
		}
	}],
	"materials": [{"name": "red", "technique": 0, "values": {"diffuse": [1, 0, 0, 1]}}]
}`

func TestMigrateScenario(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, legacyDoc)
	diags := Migrate(doc)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	for _, key := range []string{"programs", "shaders", "techniques"} {
		if _, ok := doc[key]; ok {
			t.Fatalf("top-level %s should be removed", key)
		}
	}

	mat := path(t, doc, "materials", 0).(map[string]any)
	if _, ok := mat["technique"]; ok {
		t.Fatalf("material technique should be removed")
	}
	if _, ok := mat["values"]; ok {
		t.Fatalf("material values should be removed")
	}
	if mat["name"] != "red" {
		t.Fatalf("unrelated material members must survive: %#v", mat)
	}

	ext := path(t, mat, "extensions", ExtTechniquesWebGL).(map[string]any)
	if idx, ok := gltf.Index(ext["technique"]); !ok || idx != 0 {
		t.Fatalf("unexpected technique: %#v", ext["technique"])
	}
	values := ext["values"].(map[string]any)
	if len(values) != 1 {
		t.Fatalf("unexpected values: %#v", values)
	}
	color, ok := values["u_diffuse"].([]any)
	if !ok || len(color) != 4 || color[0].(interface{ String() string }).String() != "1" {
		t.Fatalf("u_diffuse not migrated: %#v", values)
	}

	tech := path(t, doc, "extensions", ExtTechniquesWebGL, "techniques", 0).(map[string]any)
	if _, ok := tech["parameters"]; ok {
		t.Fatalf("technique parameters should be removed")
	}
	pos := path(t, tech, "attributes", "a_position").(map[string]any)
	if pos["semantic"] != "POSITION" {
		t.Fatalf("attribute not inlined: %#v", pos)
	}
	mv := path(t, tech, "uniforms", "u_modelView").(map[string]any)
	if mv["semantic"] != "MODELVIEW" {
		t.Fatalf("uniform not inlined: %#v", mv)
	}
	if _, ok := path(t, doc, "extensions", ExtTechniquesWebGL, "programs").([]any); !ok {
		t.Fatalf("programs not moved")
	}
	if _, ok := path(t, doc, "extensions", ExtTechniquesWebGL, "shaders").([]any); !ok {
		t.Fatalf("shaders not moved")
	}

	used, _ := gltf.ExtensionsUsed(doc)
	if !reflect.DeepEqual(used, []any{"KHR_materials_common", ExtTechniquesWebGL}) {
		t.Fatalf("unexpected extensionsUsed: %#v", used)
	}
	required, _ := gltf.ExtensionsRequired(doc)
	if !reflect.DeepEqual(required, []any{ExtTechniquesWebGL}) {
		t.Fatalf("unexpected extensionsRequired: %#v", required)
	}
}

func TestMigrateWithoutExtensionIsNoop(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"materials":[{"technique":0,"values":{"a":1}}],"techniques":[{}]}`,
		`{"extensionsUsed":["KHR_materials_common"],"techniques":[{}],"materials":[{"values":{}}]}`,
		`{"extensionsUsed":"KHR_technique_webgl"}`,
	}
	for _, input := range inputs {
		doc := mustParse(t, input)
		before := gltf.CloneDocument(doc)
		if diags := Migrate(doc); diags != nil {
			t.Fatalf("expected no diagnostics for %s, got %v", input, diags)
		}
		if !reflect.DeepEqual(doc, before) {
			t.Fatalf("document mutated for %s: %#v", input, doc)
		}
	}
}

func TestMigrateTwiceIsNoop(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, legacyDoc)
	Migrate(doc)
	once := gltf.CloneDocument(doc)
	if diags := Migrate(doc); diags != nil {
		t.Fatalf("second migration produced diagnostics: %v", diags)
	}
	if !reflect.DeepEqual(doc, once) {
		t.Fatalf("second migration mutated the document")
	}
}

func TestMigrateUnresolvedValueIsKept(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"extensionsRequired": ["KHR_technique_webgl"],
		"techniques": [{"uniforms": {"u_diffuse": "diffuse", "u_light": "light"}, "parameters": {"diffuse": {"type": 35666}}}],
		"materials": [{"technique": 0, "values": {"diffuse": [1, 1, 1, 1], "specular": [0, 0, 0, 1], "u_shininess": 8}}]
	}`)
	diags := Migrate(doc)

	values := path(t, doc, "materials", 0, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	if _, ok := values["u_diffuse"]; !ok {
		t.Fatalf("diffuse not renamed: %#v", values)
	}
	if _, ok := values["specular"]; !ok {
		t.Fatalf("unresolved key must be kept: %#v", values)
	}

	var unresolvedValue, unresolvedParam int
	for _, d := range diags {
		switch d.Kind {
		case DiagUnresolvedValue:
			unresolvedValue++
			if d.Key == "specular" && d.Path != "/materials/0/extensions/KHR_techniques_webgl/values/specular" {
				t.Fatalf("unexpected path: %s", d.Path)
			}
		case DiagUnresolvedParameter:
			unresolvedParam++
			if d.Key != "u_light" {
				t.Fatalf("unexpected unresolved uniform: %+v", d)
			}
		default:
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
	}
	// u_shininess is unresolved too: it is neither a parameter nor a uniform.
	if unresolvedValue != 2 || unresolvedParam != 1 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	uniforms := path(t, doc, "extensions", ExtTechniquesWebGL, "techniques", 0, "uniforms").(map[string]any)
	if uniforms["u_light"] != "light" {
		t.Fatalf("unresolved uniform should keep its parameter name: %#v", uniforms["u_light"])
	}
}

func TestMigrateRules(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"extensionsRequired": ["KHR_technique_webgl"],
		"techniques": [{
			"uniforms": {"u_transparency": "transparency"},
			"parameters": {"transparency": {"type": 5126}}
		}],
		"materials": [{"technique": 0, "values": {"tranparency": 0.5, "EMISSION": 3}}]
	}`)
	if diags := Migrate(doc); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	values := path(t, doc, "materials", 0, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	if _, ok := values["u_transparency"]; !ok {
		t.Fatalf("misspelled key not corrected and resolved: %#v", values)
	}
	if _, ok := values["u_emissionTexture"]; !ok {
		t.Fatalf("semantic key not mapped to synthetic uniform: %#v", values)
	}
	synthetic := path(t, doc, "extensions", ExtTechniquesWebGL, "techniques", 0, "uniforms", "u_emissionTexture").(map[string]any)
	if typ, ok := gltf.Index(synthetic["type"]); !ok || typ != TypeSampler2D {
		t.Fatalf("unexpected synthetic uniform: %#v", synthetic)
	}
}

func TestMigratorCustomRules(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"techniques": [{"uniforms": {"u_color": "color"}, "parameters": {"color": {"type": 35666}}}],
		"materials": [{"technique": 0, "values": {"colour": [1, 1, 1, 1], "EMISSION": 1}}]
	}`)
	m := Migrator{Rules: []Rule{{Match: "colour", Action: ActionRename, Target: "color"}}}
	diags := m.Migrate(doc)

	values := path(t, doc, "materials", 0, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	if _, ok := values["u_color"]; !ok {
		t.Fatalf("custom rule not applied: %#v", values)
	}
	if len(diags) != 1 || diags[0].Key != "EMISSION" || diags[0].Kind != DiagUnresolvedValue {
		t.Fatalf("default rules must not apply to a custom table: %v", diags)
	}
}

func TestMigrateUsesMaterialTechniqueIndex(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"techniques": [
			{"uniforms": {"u_a": "color"}, "parameters": {"color": {"type": 35666}}},
			{"uniforms": {"u_b": "color"}, "parameters": {"color": {"type": 35666}}}
		],
		"materials": [
			{"technique": 1, "values": {"color": [0, 1, 0, 1]}},
			{"technique": 0, "values": {"color": [1, 0, 0, 1]}}
		]
	}`)
	if diags := Migrate(doc); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	first := path(t, doc, "materials", 0, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	second := path(t, doc, "materials", 1, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	if _, ok := first["u_b"]; !ok {
		t.Fatalf("material 0 should resolve against technique 1: %#v", first)
	}
	if _, ok := second["u_a"]; !ok {
		t.Fatalf("material 1 should resolve against technique 0: %#v", second)
	}
}

func TestMigrateMalformedDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		kinds []DiagnosticKind
	}{
		{
			name:  "missing technique falls back to zero",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"techniques":[{"uniforms":{"u_a":"a"},"parameters":{"a":{}}}],"materials":[{"values":{"a":1}}]}`,
			kinds: []DiagnosticKind{DiagMissingTechnique},
		},
		{
			name:  "technique out of range",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"techniques":[],"materials":[{"technique":4,"values":{"a":1}}]}`,
			kinds: []DiagnosticKind{DiagInvalidTechnique},
		},
		{
			name:  "material not an object",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"materials":[7]}`,
			kinds: []DiagnosticKind{DiagMalformedMember},
		},
		{
			name:  "values not an object",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"techniques":[{}],"materials":[{"technique":0,"values":[1]}]}`,
			kinds: []DiagnosticKind{DiagMalformedMember},
		},
		{
			name:  "techniques not an array",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"techniques":{"t0":{}},"materials":[{"technique":0,"values":{}}]}`,
			kinds: []DiagnosticKind{DiagMalformedMember, DiagInvalidTechnique},
		},
		{
			name:  "no materials",
			input: `{"extensionsUsed":["KHR_technique_webgl"]}`,
		},
		{
			name:  "extensions not an object",
			input: `{"extensionsUsed":["KHR_technique_webgl"],"extensions":"x"}`,
			kinds: []DiagnosticKind{DiagMalformedMember},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			doc := mustParse(t, tc.input)
			diags := Migrate(doc)
			if len(diags) != len(tc.kinds) {
				t.Fatalf("got %v want kinds %v", diags, tc.kinds)
			}
			for i, d := range diags {
				if d.Kind != tc.kinds[i] {
					t.Fatalf("diagnostic %d: got %s want %s", i, d.Kind, tc.kinds[i])
				}
			}
			for _, key := range []string{"programs", "shaders", "techniques"} {
				if _, ok := doc[key]; ok {
					t.Fatalf("top-level %s should be removed", key)
				}
			}
		})
	}
}

func TestMigrateRequiredWithoutDeprecatedName(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"extensionsUsed":["KHR_technique_webgl"],"extensionsRequired":["KHR_draco_mesh_compression"]}`)
	Migrate(doc)
	required, _ := gltf.ExtensionsRequired(doc)
	if !reflect.DeepEqual(required, []any{"KHR_draco_mesh_compression"}) {
		t.Fatalf("extensionsRequired should be untouched: %#v", required)
	}
}

func TestMigratePreservesMaterialExtensions(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"techniques": [{}],
		"materials": [{"technique": 0, "extensions": {"KHR_materials_unlit": {}}}]
	}`)
	Migrate(doc)
	exts := path(t, doc, "materials", 0, "extensions").(map[string]any)
	if _, ok := exts["KHR_materials_unlit"]; !ok {
		t.Fatalf("existing material extension dropped: %#v", exts)
	}
	if _, ok := exts[ExtTechniquesWebGL]; !ok {
		t.Fatalf("technique extension missing: %#v", exts)
	}
}

func TestRenameConflictKeepsOriginalKey(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"extensionsUsed": ["KHR_technique_webgl"],
		"techniques": [{"uniforms": {"u_a": "a"}, "parameters": {"a": {}}}],
		"materials": [{"technique": 0, "values": {"a": 1, "u_a": 2}}]
	}`)
	diags := Migrate(doc)
	values := path(t, doc, "materials", 0, "extensions", ExtTechniquesWebGL, "values").(map[string]any)
	if len(values) != 2 {
		t.Fatalf("values lost in conflict: %#v", values)
	}
	if values["u_a"].(interface{ String() string }).String() != "2" {
		t.Fatalf("existing uniform key must not be overwritten: %#v", values)
	}
	if len(diags) != 1 || diags[0].Kind != DiagRenameConflict || diags[0].Key != "a" {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestPointerEscaping(t *testing.T) {
	t.Parallel()

	if got := pointer("materials", 0, "values", "a/b~c"); got != "/materials/0/values/a~1b~0c" {
		t.Fatalf("unexpected pointer: %s", got)
	}
}
