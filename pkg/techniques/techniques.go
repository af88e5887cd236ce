// Package techniques migrates documents using the deprecated
// KHR_technique_webgl extension to the KHR_techniques_webgl layout.
//
// Top-level programs, shaders and techniques move under
// extensions.KHR_techniques_webgl, material technique/values move under the
// material extension, values are re-keyed from parameter names to uniform
// names, and technique attributes/uniforms inline their parameter definitions.
//
// Problems are reported as Diagnostics and never abort the migration.
package techniques

import (
	"maps"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/samcharles93/glb/pkg/gltf"
)

const (
	// ExtTechniqueWebGL is the deprecated extension name.
	ExtTechniqueWebGL = "KHR_technique_webgl"
	// ExtTechniquesWebGL is the extension it is migrated to.
	ExtTechniquesWebGL = "KHR_techniques_webgl"
)

var movedMembers = []string{"programs", "shaders", "techniques"}

// Migrator rewrites KHR_technique_webgl documents. A zero Migrator uses
// DefaultRules.
type Migrator struct {
	Rules []Rule
}

// Migrate runs the default Migrator on doc.
func Migrate(doc gltf.Document) []Diagnostic {
	return Migrator{}.Migrate(doc)
}

// Migrate mutates doc in place. Documents whose extensionsUsed does not list
// KHR_technique_webgl are left untouched and produce no diagnostics.
func (m Migrator) Migrate(doc gltf.Document) []Diagnostic {
	if doc == nil || !gltf.UsesExtension(doc, ExtTechniqueWebGL) {
		return nil
	}
	rules := m.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	mg := migration{
		rules:     rules,
		synthetic: syntheticUniforms(rules),
	}

	used, _ := gltf.ExtensionsUsed(doc)
	gltf.RenameInList(used, ExtTechniqueWebGL, ExtTechniquesWebGL)
	if required, ok := gltf.ExtensionsRequired(doc); ok {
		gltf.RenameInList(required, ExtTechniqueWebGL, ExtTechniquesWebGL)
	}

	exts, replaced := gltf.EnsureObject(doc, "extensions")
	if replaced {
		mg.diags.add(DiagMalformedMember, pointer("extensions"), "", "extensions is not an object; replaced")
	}
	ext, replaced := gltf.EnsureObject(exts, ExtTechniquesWebGL)
	if replaced {
		mg.diags.add(DiagMalformedMember, pointer("extensions", ExtTechniquesWebGL), "", "extension is not an object; replaced")
	}
	for _, key := range movedMembers {
		if v, ok := doc[key]; ok {
			ext[key] = v
		}
	}

	if v, ok := ext["techniques"]; ok {
		techs, ok := gltf.Array(v)
		if !ok {
			mg.diags.add(DiagMalformedMember, pointer("extensions", ExtTechniquesWebGL, "techniques"), "", "techniques is not an array")
		}
		mg.techniques = techs
	}

	if v, ok := doc["materials"]; ok {
		materials, ok := gltf.Array(v)
		if !ok {
			mg.diags.add(DiagMalformedMember, pointer("materials"), "", "materials is not an array")
		}
		for i := range materials {
			mg.material(i, materials[i])
		}
	}

	for i := range mg.techniques {
		mg.technique(i, mg.techniques[i])
	}

	for _, key := range movedMembers {
		delete(doc, key)
	}
	return mg.diags
}

type migration struct {
	rules      []Rule
	synthetic  map[string]struct{}
	techniques []any
	diags      diagnostics
}

func techniquePath(i int, rest ...any) string {
	return pointer(append([]any{"extensions", ExtTechniquesWebGL, "techniques", i}, rest...)...)
}

func (mg *migration) material(i int, v any) {
	mat, ok := gltf.Object(v)
	if !ok {
		mg.diags.add(DiagMalformedMember, pointer("materials", i), "", "material is not an object")
		return
	}

	matExts, replaced := gltf.EnsureObject(mat, "extensions")
	if replaced {
		mg.diags.add(DiagMalformedMember, pointer("materials", i, "extensions"), "", "extensions is not an object; replaced")
	}
	ext, replaced := gltf.EnsureObject(matExts, ExtTechniquesWebGL)
	if replaced {
		mg.diags.add(DiagMalformedMember, pointer("materials", i, "extensions", ExtTechniquesWebGL), "", "extension is not an object; replaced")
	}
	extPath := []any{"materials", i, "extensions", ExtTechniquesWebGL}

	techIndex := -1
	if raw, present := mat["technique"]; present {
		ext["technique"] = raw
		idx, ok := gltf.Index(raw)
		if ok && idx < len(mg.techniques) {
			techIndex = idx
		} else {
			mg.diags.add(DiagInvalidTechnique, pointer(append(extPath, "technique")...), "",
				"technique %v does not reference one of %d techniques", raw, len(mg.techniques))
		}
	} else if len(mg.techniques) > 0 {
		ext["technique"] = json.Number("0")
		techIndex = 0
		mg.diags.add(DiagMissingTechnique, pointer(append(extPath, "technique")...), "",
			"material has no technique; using technique 0")
	} else {
		mg.diags.add(DiagMissingTechnique, pointer(append(extPath, "technique")...), "",
			"material has no technique and the document has no techniques")
	}

	if raw, present := mat["values"]; present {
		ext["values"] = raw
		values, ok := gltf.Object(raw)
		switch {
		case !ok:
			mg.diags.add(DiagMalformedMember, pointer(append(extPath, "values")...), "", "values is not an object")
		case techIndex >= 0:
			tech, ok := gltf.Object(mg.techniques[techIndex])
			if !ok {
				// Reported once by the technique pass.
				break
			}
			mg.rekeyValues(values, tech, techIndex, append(extPath, "values"))
		}
	}

	delete(mat, "technique")
	delete(mat, "values")
}

// rekeyValues renames values from parameter names to uniform names.
func (mg *migration) rekeyValues(values, tech map[string]any, techIndex int, path []any) {
	uniforms, _ := gltf.Object(tech["uniforms"])
	byParam := make(map[string]string, len(uniforms))
	for _, name := range slices.Sorted(maps.Keys(uniforms)) {
		param, ok := gltf.String(uniforms[name])
		if !ok {
			continue
		}
		if _, dup := byParam[param]; !dup {
			byParam[param] = name
		}
	}

	targets := make(map[string]string, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		target, resolved := mg.applyRules(key, tech, techIndex)
		if !resolved {
			if u, ok := byParam[target]; ok {
				target = u
			} else if _, ok := uniforms[target]; !ok {
				mg.diags.add(DiagUnresolvedValue, pointer(append(path, key)...), key,
					"no uniform of technique %d references parameter %q", techIndex, target)
			}
		}
		targets[key] = target
	}

	out := make(map[string]any, len(values))
	// Unchanged keys first so a rename can never displace them.
	for key, target := range targets {
		if key == target {
			out[key] = values[key]
		}
	}
	for _, key := range slices.Sorted(maps.Keys(targets)) {
		target := targets[key]
		if key == target {
			continue
		}
		if _, taken := out[target]; taken {
			if _, keyTaken := out[key]; keyTaken {
				mg.diags.add(DiagRenameConflict, pointer(append(path, key)...), key,
					"cannot rename to %q or keep %q; both are taken, value dropped", target, key)
				continue
			}
			mg.diags.add(DiagRenameConflict, pointer(append(path, key)...), key,
				"rename target %q already exists; kept original key", target)
			out[key] = values[key]
			continue
		}
		out[target] = values[key]
	}

	clear(values)
	maps.Copy(values, out)
}

// applyRules returns the key after rule rewrites. resolved is true when a
// rule fully handled the key.
func (mg *migration) applyRules(key string, tech map[string]any, techIndex int) (string, bool) {
	target := key
	for _, r := range mg.rules {
		if r.Match != target {
			continue
		}
		switch r.Action {
		case ActionRename:
			target = r.Target
		case ActionSyntheticUniform:
			uniforms, replaced := gltf.EnsureObject(tech, "uniforms")
			if replaced {
				mg.diags.add(DiagMalformedMember, techniquePath(techIndex, "uniforms"), "", "uniforms is not an object; replaced")
			}
			if _, exists := uniforms[r.Target]; !exists {
				uniforms[r.Target] = map[string]any{"type": json.Number(strconv.Itoa(r.Type))}
			}
			return r.Target, true
		}
	}
	return target, false
}

// technique inlines parameter definitions into attributes and uniforms.
func (mg *migration) technique(i int, v any) {
	tech, ok := gltf.Object(v)
	if !ok {
		mg.diags.add(DiagMalformedMember, techniquePath(i), "", "technique is not an object")
		return
	}
	params, ok := gltf.Object(tech["parameters"])
	if !ok && tech["parameters"] != nil {
		mg.diags.add(DiagMalformedMember, techniquePath(i, "parameters"), "", "parameters is not an object")
	}

	for _, member := range []string{"attributes", "uniforms"} {
		raw, present := tech[member]
		if !present {
			continue
		}
		entries, ok := gltf.Object(raw)
		if !ok {
			mg.diags.add(DiagMalformedMember, techniquePath(i, member), "", "%s is not an object", member)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(entries)) {
			if member == "uniforms" {
				if _, skip := mg.synthetic[name]; skip {
					continue
				}
			}
			param, ok := gltf.String(entries[name])
			if !ok {
				continue
			}
			def, found := params[param]
			if !found {
				mg.diags.add(DiagUnresolvedParameter, techniquePath(i, member, name), name,
					"parameter %q is not defined by the technique", param)
				continue
			}
			entries[name] = def
		}
	}

	delete(tech, "parameters")
}
