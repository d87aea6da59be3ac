package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/shed/pkg/models"
)

func extract(t *testing.T, path, code string) *models.FileSymbols {
	t.Helper()
	syms, err := NewESModules().Extract(path, []byte(code))
	require.NoError(t, err)
	return syms
}

func exportNames(syms *models.FileSymbols) []string {
	names := make([]string, 0, len(syms.Exports))
	for _, e := range syms.Exports {
		names = append(names, e.Name)
	}
	return names
}

func TestESModules_ExportDeclarations(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []models.ExportRecord
	}{
		{
			name: "function",
			code: "export function helper() {}\n",
			want: []models.ExportRecord{{Name: "helper", Kind: models.ExportFunction, Line: 1}},
		},
		{
			name: "async and generator functions",
			code: "export async function load() {}\nexport function* gen() {}\n",
			want: []models.ExportRecord{
				{Name: "load", Kind: models.ExportFunction, Line: 1},
				{Name: "gen", Kind: models.ExportFunction, Line: 2},
			},
		},
		{
			name: "class",
			code: "export class Store {}\n",
			want: []models.ExportRecord{{Name: "Store", Kind: models.ExportClass, Line: 1}},
		},
		{
			name: "multiple declarators",
			code: "export const a = 1, b = 2;\n",
			want: []models.ExportRecord{
				{Name: "a", Kind: models.ExportVariable, Line: 1},
				{Name: "b", Kind: models.ExportVariable, Line: 1},
			},
		},
		{
			name: "destructuring",
			code: "const obj = { x: 1, y: 2 };\nexport const { x, y: renamed } = obj;\n",
			want: []models.ExportRecord{
				{Name: "x", Kind: models.ExportVariable, Line: 2},
				{Name: "renamed", Kind: models.ExportVariable, Line: 2},
			},
		},
		{
			name: "interface and type",
			code: "export interface Props { a: string }\nexport type Id = string;\n",
			want: []models.ExportRecord{
				{Name: "Props", Kind: models.ExportInterface, Line: 1},
				{Name: "Id", Kind: models.ExportType, Line: 2},
			},
		},
		{
			name: "enum",
			code: "export enum Color { Red, Green }\n",
			want: []models.ExportRecord{{Name: "Color", Kind: models.ExportVariable, Line: 1}},
		},
		{
			name: "default object",
			code: "export default { port: 8080 };\n",
			want: []models.ExportRecord{{Name: "default", Kind: models.ExportDefault, Line: 1, IsDefault: true}},
		},
		{
			name: "default named function",
			code: "export default function main() {}\n",
			want: []models.ExportRecord{{Name: "main", Kind: models.ExportDefault, Line: 1, IsDefault: true}},
		},
		{
			name: "default identifier",
			code: "const app = 1;\nexport default app;\n",
			want: []models.ExportRecord{{Name: "app", Kind: models.ExportDefault, Line: 2, IsDefault: true}},
		},
		{
			name: "export clause takes local kind",
			code: "function a() {}\nclass B {}\nconst c = 1;\nexport { a, B as Bee, c as default };\n",
			want: []models.ExportRecord{
				{Name: "a", Kind: models.ExportFunction, Line: 4},
				{Name: "Bee", Kind: models.ExportClass, Line: 4},
				{Name: "c", Kind: models.ExportDefault, Line: 4, IsDefault: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syms := extract(t, "src/mod.ts", tt.code)
			for i := range tt.want {
				tt.want[i].File = "src/mod.ts"
			}
			assert.Equal(t, tt.want, syms.Exports)
			assert.Empty(t, syms.Imports)
		})
	}
}

func TestESModules_Imports(t *testing.T) {
	code := `import React from 'react';
import { useState as useS, useEffect } from "react";
import * as path from 'path';
import './polyfill';
import def, { named } from './mod';
import type { Props } from './types';

useS(0);
path.join(def);
const p: Props = {};
`
	syms := extract(t, "src/app.tsx", code)
	require.Len(t, syms.Imports, 8)

	byLocal := make(map[string]models.ImportRecord)
	for _, imp := range syms.Imports {
		byLocal[imp.DisplayName()] = imp
	}

	react := byLocal["React"]
	assert.Equal(t, models.ImportDefault, react.Kind)
	assert.Equal(t, "default", react.ImportedName)
	assert.Equal(t, "react", react.SourceSpecifier)
	assert.Equal(t, 1, react.Line)
	assert.False(t, react.Referenced)

	useS := byLocal["useS"]
	assert.Equal(t, "useState", useS.ImportedName)
	assert.Equal(t, models.ImportNamed, useS.Kind)
	assert.True(t, useS.Referenced)
	assert.False(t, byLocal["useEffect"].Referenced)

	ns := byLocal["path"]
	assert.Equal(t, models.ImportNamespace, ns.Kind)
	assert.Empty(t, ns.ImportedName)
	assert.True(t, ns.Referenced)

	side := byLocal["./polyfill"]
	assert.Equal(t, models.ImportSideEffect, side.Kind)
	assert.Empty(t, side.ImportedName)
	assert.Equal(t, 4, side.Line)

	assert.True(t, byLocal["def"].Referenced)
	assert.Equal(t, models.ImportDefault, byLocal["def"].Kind)
	assert.False(t, byLocal["named"].Referenced)

	props := byLocal["Props"]
	assert.True(t, props.TypeOnly)
	assert.True(t, props.Referenced)
}

func TestESModules_JSXReference(t *testing.T) {
	code := `import Button from './Button';
import Unused from './Unused';
export const App = () => <Button label="x" />;
`
	syms := extract(t, "src/App.tsx", code)
	require.Len(t, syms.Imports, 2)
	assert.True(t, syms.Imports[0].Referenced)
	assert.False(t, syms.Imports[1].Referenced)
}

func TestESModules_ReExports(t *testing.T) {
	code := `export { helper, other as renamed } from './utils';
export * from './all';
export * as ns from './ns';
`
	syms := extract(t, "src/index.ts", code)

	assert.Equal(t, []string{"helper", "renamed", "ns"}, exportNames(syms))
	require.Len(t, syms.Imports, 4)
	for _, imp := range syms.Imports {
		assert.True(t, imp.ReExport, imp.SourceSpecifier)
		assert.True(t, imp.Referenced, imp.SourceSpecifier)
	}
	assert.Equal(t, "helper", syms.Imports[0].ImportedName)
	assert.Equal(t, "other", syms.Imports[1].ImportedName)
	assert.Equal(t, models.ImportNamespace, syms.Imports[2].Kind)
	assert.Equal(t, "./all", syms.Imports[2].SourceSpecifier)
	assert.Equal(t, models.ImportNamespace, syms.Imports[3].Kind)
}

func TestESModules_DynamicImportAndRequire(t *testing.T) {
	code := `const lazy = () => import('./lazy');
const fs = require('fs');
const dyn = require(name);
`
	syms := extract(t, "src/load.js", code)
	require.Len(t, syms.Imports, 2)
	assert.Equal(t, "./lazy", syms.Imports[0].SourceSpecifier)
	assert.Equal(t, models.ImportNamespace, syms.Imports[0].Kind)
	assert.True(t, syms.Imports[0].Referenced)
	assert.Equal(t, "fs", syms.Imports[1].SourceSpecifier)
	assert.Equal(t, 2, syms.Imports[1].Line)
}

func TestESModules_ParseError(t *testing.T) {
	_, err := NewESModules().Extract("src/broken.ts", []byte("export const = ;\n"))
	require.Error(t, err)

	var perr *models.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "src/broken.ts", perr.Path)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, err.Error(), "src/broken.ts")
}

func TestESModules_UnknownExtensionUsesTypeScript(t *testing.T) {
	syms := extract(t, "src/mod.vue.ts.txt", "export const a = 1;\n")
	assert.Equal(t, []string{"a"}, exportNames(syms))
}

func TestFunc(t *testing.T) {
	var called string
	var ex Extractor = Func(func(path string, _ []byte) (*models.FileSymbols, error) {
		called = path
		return &models.FileSymbols{Path: path}, nil
	})
	syms, err := ex.Extract("a.ts", nil)
	require.NoError(t, err)
	assert.Equal(t, "a.ts", called)
	assert.Equal(t, "a.ts", syms.Path)
}
