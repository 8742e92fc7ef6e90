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

import "encoding/xml"

// document mirrors the <appianObject> XML shape. It is a superset of all
// per-type fields; each type-specific parser reads its own slice of it.
type document struct {
	XMLName     xml.Name `xml:"appianObject"`
	Type        string   `xml:"type,attr"`
	UUID        string   `xml:"uuid,attr"`
	VersionUUID string   `xml:"versionUuid,attr"`

	Name        string `xml:"name"`
	Description string `xml:"description"`

	// SAIL-bearing types.
	Definition string `xml:"definition"`

	// Constants.
	Value     string `xml:"value"`
	ValueType string `xml:"valueType"`

	// Web APIs and integrations.
	Endpoint        string `xml:"endpoint"`
	ConnectedSystem string `xml:"connectedSystem"`

	// Record types, CDTs, data stores.
	SourceType string   `xml:"sourceType"`
	Namespace  string   `xml:"namespace"`
	Fields     []string `xml:"fields>field"`
	Entities   []string `xml:"entities>entity"`

	// Sites and groups.
	Pages   []string `xml:"pages>page"`
	Parent  string   `xml:"parent"`
	Members []string `xml:"members>member"`

	// Connected systems.
	TemplateType string        `xml:"templateType"`
	Properties   []docProperty `xml:"properties>property"`

	// Process models.
	Nodes     []docNode     `xml:"nodes>node"`
	Variables []docVariable `xml:"variables>variable"`
}

type docProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type docNode struct {
	UUID        string          `xml:"uuid,attr"`
	GUIID       string          `xml:"guiId,attr"`
	Name        string          `xml:"name"`
	Connections []docConnection `xml:"connections>connection"`
}

type docConnection struct {
	ToGUIID   string `xml:"toGuiId,attr"`
	Condition string `xml:"condition,attr"`
	Default   bool   `xml:"default,attr"`
}

type docVariable struct {
	Name      string `xml:"name,attr"`
	Type      string `xml:"type,attr"`
	Parameter bool   `xml:"parameter,attr"`
}
