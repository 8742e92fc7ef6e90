// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"fmt"

	"github.com/AleutianAI/appmerge/services/appmerge/model"
)

// Parser extracts the type-specific detail from a decoded document.
// One implementation exists per object type; the Registry selects the
// implementation from the document's declared type tag.
type Parser interface {
	// Type returns the object type this parser handles.
	Type() model.ObjectType

	// Parse builds the type-specific detail from the decoded document.
	Parse(doc *document) (model.Detail, error)
}

// Registry holds the explicit type-tag to parser mapping. The mapping is
// constructed at startup; there is no runtime discovery.
//
// Thread Safety: read-only after NewRegistry; safe for concurrent use.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a Registry with every supported object type
// registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser, int(model.NumObjectTypes))}
	for _, p := range []Parser{
		interfaceParser{},
		expressionRuleParser{},
		processModelParser{},
		recordTypeParser{},
		cdtParser{},
		constantParser{},
		integrationParser{},
		webAPIParser{},
		siteParser{},
		groupParser{},
		connectedSystemParser{},
		dataStoreParser{},
	} {
		r.parsers[p.Type().String()] = p
	}
	return r
}

// Lookup returns the parser for a type tag.
func (r *Registry) Lookup(typeTag string) (Parser, bool) {
	p, ok := r.parsers[typeTag]
	return p, ok
}

// Parse selects a parser by the document's type tag and runs it.
// Unrecognized tags return ErrUnknownObjectType (wrapped); the builder
// downgrades such documents to Unknown objects.
func (r *Registry) Parse(doc *document) (model.ObjectType, model.Detail, error) {
	p, ok := r.parsers[doc.Type]
	if !ok {
		return model.TypeUnknown, nil, fmt.Errorf("%w: %q", ErrUnknownObjectType, doc.Type)
	}
	detail, err := p.Parse(doc)
	if err != nil {
		return model.TypeUnknown, nil, err
	}
	return p.Type(), detail, nil
}

type interfaceParser struct{}

func (interfaceParser) Type() model.ObjectType { return model.TypeInterface }

func (interfaceParser) Parse(doc *document) (model.Detail, error) {
	return model.InterfaceDetail{Definition: doc.Definition}, nil
}

type expressionRuleParser struct{}

func (expressionRuleParser) Type() model.ObjectType { return model.TypeExpressionRule }

func (expressionRuleParser) Parse(doc *document) (model.Detail, error) {
	return model.ExpressionRuleDetail{Definition: doc.Definition}, nil
}

type processModelParser struct{}

func (processModelParser) Type() model.ObjectType { return model.TypeProcessModel }

func (processModelParser) Parse(doc *document) (model.Detail, error) {
	nodes := make([]*model.ProcessModelNode, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.UUID == "" {
			return nil, fmt.Errorf("%w: node without uuid in process model %s", ErrMalformedDocument, doc.UUID)
		}
		node := &model.ProcessModelNode{
			UUID:  n.UUID,
			GUIID: n.GUIID,
			Name:  n.Name,
		}
		for _, c := range n.Connections {
			node.Connections = append(node.Connections, model.Connection{
				ToGUIID:   c.ToGUIID,
				Condition: c.Condition,
				Default:   c.Default,
			})
		}
		nodes = append(nodes, node)
	}

	vars := make([]model.Variable, 0, len(doc.Variables))
	for _, v := range doc.Variables {
		vars = append(vars, model.Variable{
			Name:      v.Name,
			Type:      v.Type,
			Parameter: v.Parameter,
		})
	}

	return model.ProcessModelDetail{Nodes: nodes, Variables: vars}, nil
}

type recordTypeParser struct{}

func (recordTypeParser) Type() model.ObjectType { return model.TypeRecordType }

func (recordTypeParser) Parse(doc *document) (model.Detail, error) {
	return model.RecordTypeDetail{
		SourceType: doc.SourceType,
		FieldNames: doc.Fields,
	}, nil
}

type cdtParser struct{}

func (cdtParser) Type() model.ObjectType { return model.TypeCDT }

func (cdtParser) Parse(doc *document) (model.Detail, error) {
	return model.CDTDetail{
		Namespace:  doc.Namespace,
		FieldNames: doc.Fields,
	}, nil
}

type constantParser struct{}

func (constantParser) Type() model.ObjectType { return model.TypeConstant }

func (constantParser) Parse(doc *document) (model.Detail, error) {
	return model.ConstantDetail{
		Value:     doc.Value,
		ValueType: doc.ValueType,
	}, nil
}

type integrationParser struct{}

func (integrationParser) Type() model.ObjectType { return model.TypeIntegration }

func (integrationParser) Parse(doc *document) (model.Detail, error) {
	return model.IntegrationDetail{
		Definition:          doc.Definition,
		ConnectedSystemUUID: doc.ConnectedSystem,
	}, nil
}

type webAPIParser struct{}

func (webAPIParser) Type() model.ObjectType { return model.TypeWebAPI }

func (webAPIParser) Parse(doc *document) (model.Detail, error) {
	return model.WebAPIDetail{
		Definition: doc.Definition,
		Endpoint:   doc.Endpoint,
	}, nil
}

type siteParser struct{}

func (siteParser) Type() model.ObjectType { return model.TypeSite }

func (siteParser) Parse(doc *document) (model.Detail, error) {
	return model.SiteDetail{PageNames: doc.Pages}, nil
}

type groupParser struct{}

func (groupParser) Type() model.ObjectType { return model.TypeGroup }

func (groupParser) Parse(doc *document) (model.Detail, error) {
	return model.GroupDetail{
		ParentUUID:  doc.Parent,
		MemberUUIDs: doc.Members,
	}, nil
}

type connectedSystemParser struct{}

func (connectedSystemParser) Type() model.ObjectType { return model.TypeConnectedSystem }

func (connectedSystemParser) Parse(doc *document) (model.Detail, error) {
	props := make(map[string]string, len(doc.Properties))
	for _, p := range doc.Properties {
		props[p.Name] = p.Value
	}
	return model.ConnectedSystemDetail{
		TemplateType: doc.TemplateType,
		Properties:   props,
	}, nil
}

type dataStoreParser struct{}

func (dataStoreParser) Type() model.ObjectType { return model.TypeDataStore }

func (dataStoreParser) Parse(doc *document) (model.Detail, error) {
	return model.DataStoreDetail{EntityNames: doc.Entities}, nil
}
