// # internal/engine/parser/parser_test.go
package parser

import (
	"testing"

	"orphan/internal/core/errors"
)

func parseSource(t *testing.T, path, source string) *Module {
	t.Helper()
	p := NewParser(NewGrammarLoader(true))
	module, err := p.ParseFile(path, []byte(source))
	if err != nil {
		t.Fatalf("ParseFile(%s) failed: %v", path, err)
	}
	return module
}

func specifiers(m *Module) map[string]SpecifierKind {
	out := make(map[string]SpecifierKind, len(m.Specifiers))
	for _, s := range m.Specifiers {
		out[s.Raw] = s.Kind
	}
	return out
}

func TestExtractStaticImports(t *testing.T) {
	module := parseSource(t, "a.ts", `
import React from "react";
import { useState } from "react-dom";
import * as path from "./util/path";
import "./styles.css";
`)

	specs := specifiers(module)
	if specs["react"] != KindStatic {
		t.Errorf("Expected static import of react, got %v", specs)
	}
	if specs["./util/path"] != KindStatic {
		t.Errorf("Expected static import of ./util/path, got %v", specs)
	}
	if specs["./styles.css"] != KindSideEffect {
		t.Errorf("Expected side-effect import of ./styles.css, got %v", specs)
	}
	if len(module.Specifiers) != 4 {
		t.Errorf("Expected 4 specifiers, got %d", len(module.Specifiers))
	}
}

func TestExtractTypeOnlyImports(t *testing.T) {
	module := parseSource(t, "a.ts", `
import type { Props } from "./types";
export type { State } from "./state";
`)

	specs := specifiers(module)
	if specs["./types"] != KindTypeOnly {
		t.Errorf("Expected type-only import, got %v", specs["./types"])
	}
	if specs["./state"] != KindTypeOnly {
		t.Errorf("Expected type-only re-export, got %v", specs["./state"])
	}
}

func TestExtractReExports(t *testing.T) {
	module := parseSource(t, "barrel.ts", `
export * from "./a";
export { x, y } from "./b";
export * as ns from "./c";
export const local = 1;
`)

	specs := specifiers(module)
	for _, want := range []string{"./a", "./b", "./c"} {
		if specs[want] != KindReExport {
			t.Errorf("Expected re-export of %s, got %v", want, specs[want])
		}
	}
	if len(module.Specifiers) != 3 {
		t.Errorf("Expected 3 specifiers, got %d", len(module.Specifiers))
	}
}

func TestExtractDynamicImport(t *testing.T) {
	module := parseSource(t, "a.ts", `
async function load(name) {
  const a = await import("./lazy");
  const b = await import(`+"`./${name}`"+`);
  const c = await import(name);
  return { a, b, c };
}
`)

	specs := specifiers(module)
	if specs["./lazy"] != KindDynamic {
		t.Errorf("Expected dynamic import of ./lazy, got %v", specs)
	}
	// Template and computed arguments are not specifiers.
	if len(module.Specifiers) != 1 {
		t.Errorf("Expected 1 specifier, got %d: %v", len(module.Specifiers), specs)
	}
	if !module.HasDynamic() {
		t.Error("Expected HasDynamic to be true")
	}
}

func TestExtractRequire(t *testing.T) {
	module := parseSource(t, "a.cjs", `
const fs = require("fs");
const helper = require("./helper");
if (process.env.DEBUG) {
  require("./debug");
}
const computed = require(prefix + "/x");
const notGlobal = window.require("./skipped");
`)

	specs := specifiers(module)
	if specs["fs"] != KindRequire || specs["./helper"] != KindRequire || specs["./debug"] != KindRequire {
		t.Errorf("Missing require specifiers: %v", specs)
	}
	if _, ok := specs["./skipped"]; ok {
		t.Error("window.require must not count as a specifier")
	}
	if len(module.Specifiers) != 3 {
		t.Errorf("Expected 3 specifiers, got %d: %v", len(module.Specifiers), specs)
	}
}

func TestExtractTSX(t *testing.T) {
	module := parseSource(t, "Button.tsx", `
import React from "react";
import { Icon } from "./Icon";

export function Button() {
  return <button><Icon name="ok" /></button>;
}
`)

	specs := specifiers(module)
	if specs["./Icon"] != KindStatic {
		t.Errorf("Expected ./Icon import from TSX, got %v", specs)
	}
}

func TestExtractJSX(t *testing.T) {
	module := parseSource(t, "App.jsx", `
import Header from "./Header";
export default () => <Header title="x" />;
`)

	if specifiers(module)["./Header"] != KindStatic {
		t.Errorf("Expected ./Header import from JSX, got %v", specifiers(module))
	}
}

func TestExtractTopLevelAwait(t *testing.T) {
	module := parseSource(t, "boot.mjs", `
import { init } from "./init";
const mod = await import("./late");
await init(mod);
`)

	specs := specifiers(module)
	if specs["./init"] != KindStatic || specs["./late"] != KindDynamic {
		t.Errorf("Unexpected specifiers: %v", specs)
	}
}

func TestParseErrorPosition(t *testing.T) {
	p := NewParser(NewGrammarLoader(false))
	_, err := p.ParseFile("broken.ts", []byte("import { from ;;; ???"))
	if err == nil {
		t.Fatal("Expected a parse error")
	}
	if !errors.IsCode(err, errors.CodeParse) {
		t.Errorf("Expected PARSE_ERROR, got %v", err)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	p := NewParser(NewGrammarLoader(false))
	_, err := p.ParseFile("image.svg", []byte("<svg/>"))
	if !errors.IsCode(err, errors.CodeParse) {
		t.Errorf("Expected PARSE_ERROR for unsupported extension, got %v", err)
	}
}

func TestExtractCSSImports(t *testing.T) {
	module := parseSource(t, "main.scss", `
@use "sass:math";
@use "./variables" as vars;
@import "./base.css";
@forward "./mixins";

.logo {
  background: url("../assets/logo.svg");
}
`)

	specs := specifiers(module)
	for _, want := range []string{"sass:math", "./variables", "./base.css", "./mixins", "../assets/logo.svg"} {
		if specs[want] != KindStyleUse {
			t.Errorf("Expected style use of %s, got %v", want, specs)
		}
	}
}

func TestCSSSkipsRemoteURLs(t *testing.T) {
	module := parseSource(t, "fonts.css", `
@import url("https://fonts.example/css?family=Inter");
.icon { background: url(data:image/png;base64,AAAA); }
`)

	if len(module.Specifiers) != 0 {
		t.Errorf("Expected no specifiers for remote/data URLs, got %v", module.Specifiers)
	}
}

func TestLanguageForPath(t *testing.T) {
	gl := NewGrammarLoader(true)
	cases := map[string]string{
		"a.ts":       "typescript",
		"a.d.ts":     "typescript",
		"a.tsx":      "tsx",
		"a.js":       "javascript",
		"a.mjs":      "javascript",
		"a.cjs":      "javascript",
		"a.JSX":      "javascript",
		"style.scss": "css",
		"a.rs":       "",
		"Makefile":   "",
	}
	for path, want := range cases {
		if got := gl.LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
