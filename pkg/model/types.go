package model

import internalmodel "github.com/goliatone/go-docfield/internal/model"

// FieldKind re-exports the internal FieldKind enumeration.
type FieldKind = internalmodel.FieldKind

const (
	FieldKindData     = internalmodel.FieldKindData
	FieldKindInt      = internalmodel.FieldKindInt
	FieldKindFloat    = internalmodel.FieldKindFloat
	FieldKindCheck    = internalmodel.FieldKindCheck
	FieldKindSelect   = internalmodel.FieldKindSelect
	FieldKindDate     = internalmodel.FieldKindDate
	FieldKindDatetime = internalmodel.FieldKindDatetime
	FieldKindLink     = internalmodel.FieldKindLink
	FieldKindTable    = internalmodel.FieldKindTable
	FieldKindText     = internalmodel.FieldKindText
)

const (
	KeyDoctype     = internalmodel.KeyDoctype
	KeyName        = internalmodel.KeyName
	KeyParentfield = internalmodel.KeyParentfield
)

type Document = internalmodel.Document
type DependsFunc = internalmodel.DependsFunc
type DocField = internalmodel.DocField
type DocPerm = internalmodel.DocPerm
type DocType = internalmodel.DocType
