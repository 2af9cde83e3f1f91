// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Phone resolution stages, in cascade order. Recorded in metrics so
// operators can see which telephony integrations their agents use.
const (
	StageBody             = "body"
	StagePhoneCall        = "phone_call"
	StageDynamicVariables = "dynamic_variables"
	StageKeySearch        = "key_search"
	StagePatternSearch    = "pattern_search"
	StageNone             = "none"
)

// phonePattern matches phone-number-like strings: optional leading +,
// then 8 to 17 digits with optional spaces and dashes inside.
var phonePattern = regexp.MustCompile(`^\+?\d[\d\s\-]{6,15}\d$`)

// deepAgentKeys and deepClientKeys classify keys found during the
// recursive key search. Exact match, case sensitive.
var deepAgentKeys = map[string]bool{
	"agent_number": true, "to_number": true, "To": true, "Called": true,
	"agent_phone": true, "called_number": true, "bot_number": true,
	"destination_number": true, "dialed_number": true,
	"agent_phone_number": true, "to": true,
}

var deepClientKeys = map[string]bool{
	"from_number": true, "From": true, "Caller": true, "external_number": true,
	"customer_number": true, "caller_number": true, "client_phone": true,
	"source_number": true, "originating_number": true, "customer_phone": true,
	"phone_number": true, "phone": true, "from": true,
	"caller_phone_number": true,
}

// PhoneResolution holds the outcome of the resolver cascade.
type PhoneResolution struct {
	AgentPhone  *string
	ClientPhone *string
	Stage       string
}

// ResolvePhones extracts agent and client phone numbers from a
// conversation detail document. The provider reports numbers in
// different places depending on the telephony integration, so the
// resolver tries sources in a fixed cascade:
//
//  1. metadata.body To/From (Twilio), to_number/from_number (SIP
//     trunking), lowercase to/from, Called/Caller
//  2. metadata.phone_call field synonyms
//  3. conversation_initiation_client_data.dynamic_variables synonyms
//  4. recursive key search over metadata for known phone key names
//  5. recursive value search over the full document for string or
//     numeric values that look like phone numbers, classified by
//     their JSON path
//
// Earlier sources win; a later stage only fills fields still missing.
// Stage records the first source that contributed a value.
func ResolvePhones(detail gjson.Result) PhoneResolution {
	r := &resolver{}
	meta := detail.Get("metadata")

	r.fromBody(meta.Get("body"))
	r.fromPhoneCall(meta.Get("phone_call"))
	r.fromDynamicVariables(detail.Get("conversation_initiation_client_data.dynamic_variables"))

	if r.missingAny() && meta.IsObject() {
		r.stageStart(StageKeySearch)
		r.deepKeySearch(meta)
	}

	if r.missingAny() {
		r.stageStart(StagePatternSearch)
		r.patternSearch(detail)
	}

	res := PhoneResolution{Stage: r.stage}
	if res.Stage == "" {
		res.Stage = StageNone
	}
	if r.agent != "" {
		v := strings.TrimSpace(r.agent)
		res.AgentPhone = &v
	}
	if r.client != "" {
		v := strings.TrimSpace(r.client)
		res.ClientPhone = &v
	}
	return res
}

type resolver struct {
	agent   string
	client  string
	stage   string
	current string
}

func (r *resolver) missingAny() bool {
	return r.agent == "" || r.client == ""
}

func (r *resolver) stageStart(name string) {
	r.current = name
}

// setAgent assigns the agent number if still missing, crediting the
// current stage.
func (r *resolver) setAgent(v string) {
	if r.agent == "" && strings.TrimSpace(v) != "" {
		r.agent = v
		if r.stage == "" {
			r.stage = r.current
		}
	}
}

func (r *resolver) setClient(v string) {
	if r.client == "" && strings.TrimSpace(v) != "" {
		r.client = v
		if r.stage == "" {
			r.stage = r.current
		}
	}
}

// firstOf returns the first non-empty string value among keys.
func firstOf(obj gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := obj.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func (r *resolver) fromBody(body gjson.Result) {
	if !body.IsObject() {
		return
	}
	r.stageStart(StageBody)

	// Twilio reports the agent side as "To" and the caller as "From".
	r.setAgent(body.Get("To").String())
	r.setClient(body.Get("From").String())

	// SIP trunking uses snake_case field names.
	r.setAgent(body.Get("to_number").String())
	r.setClient(body.Get("from_number").String())

	// Lowercase variants, in case the provider normalizes them.
	r.setAgent(body.Get("to").String())
	r.setClient(body.Get("from").String())

	// Additional Twilio fields.
	r.setAgent(body.Get("Called").String())
	r.setClient(body.Get("Caller").String())
}

func (r *resolver) fromPhoneCall(pc gjson.Result) {
	if !pc.IsObject() {
		return
	}
	r.stageStart(StagePhoneCall)

	r.setAgent(firstOf(pc, "agent_number", "to_number", "to"))
	r.setClient(firstOf(pc, "external_number", "from_number", "from"))
	r.setAgent(firstOf(pc, "agent_phone_number", "called_number"))
	r.setClient(firstOf(pc, "caller_phone_number", "caller_number"))
}

func (r *resolver) fromDynamicVariables(dyn gjson.Result) {
	if !dyn.IsObject() {
		return
	}
	r.stageStart(StageDynamicVariables)

	r.setAgent(firstOf(dyn,
		"agent_number", "to_number", "To", "agent_phone", "called_number", "Called"))
	r.setClient(firstOf(dyn,
		"customer_number", "from_number", "From", "client_phone", "caller_number",
		"Caller", "phone", "phone_number", "customer_phone"))
}

// deepKeySearch walks nested objects in document order looking for
// known phone key names with non-empty string values. Arrays are not
// descended; phone metadata always lives in objects.
func (r *resolver) deepKeySearch(obj gjson.Result) {
	obj.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.IsObject():
			r.deepKeySearch(value)
		case value.Type == gjson.String && strings.TrimSpace(value.String()) != "":
			if deepAgentKeys[key.String()] {
				r.setAgent(value.String())
			}
			if deepClientKeys[key.String()] {
				r.setClient(value.String())
			}
		}
		return r.missingAny()
	})
}

// phoneCandidate is a phone-like value found during the pattern
// search, with the JSON path it was found at.
type phoneCandidate struct {
	path  string
	value string
}

// patternSearch is the last resort: collect every string or numeric
// leaf in the document that looks like a phone number and classify
// each by the keywords in its path. If classification fails entirely, fall back to
// positional assignment.
func (r *resolver) patternSearch(detail gjson.Result) {
	candidates := collectPhoneCandidates(detail, "")

	for _, c := range candidates {
		pathLower := strings.ToLower(c.path)
		switch {
		case r.agent == "" && containsAny(pathLower,
			"agent", "to_number", ".to", "called", "voicebot", "bot_number"):
			r.setAgent(c.value)
		case r.client == "" && containsAny(pathLower,
			"client", "customer", "from_number", ".from", "caller", "external", "user_phone"):
			r.setClient(c.value)
		}
	}

	// Nothing classified: assign positionally. A lone number is more
	// likely the caller than the agent line.
	if r.agent == "" && r.client == "" {
		switch {
		case len(candidates) >= 2:
			r.setAgent(candidates[0].value)
			r.setClient(candidates[1].value)
		case len(candidates) == 1:
			r.setClient(candidates[0].value)
		}
	}
}

func collectPhoneCandidates(node gjson.Result, path string) []phoneCandidate {
	var found []phoneCandidate

	switch {
	case node.IsObject():
		node.ForEach(func(key, value gjson.Result) bool {
			childPath := key.String()
			if path != "" {
				childPath = path + "." + childPath
			}
			found = append(found, collectPhoneCandidates(value, childPath)...)
			return true
		})
	case node.IsArray():
		i := 0
		node.ForEach(func(_, value gjson.Result) bool {
			found = append(found, collectPhoneCandidates(value, fmt.Sprintf("%s[%d]", path, i))...)
			i++
			return true
		})
	case node.Type == gjson.String:
		trimmed := strings.TrimSpace(node.String())
		if phonePattern.MatchString(trimmed) {
			found = append(found, phoneCandidate{path: path, value: trimmed})
		}
	case node.Type == gjson.Number:
		// Some integrations emit numbers as JSON numbers. Raw keeps the
		// literal digits; String() would reformat large values as floats.
		if phonePattern.MatchString(node.Raw) {
			found = append(found, phoneCandidate{path: path, value: node.Raw})
		}
	}

	return found
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
