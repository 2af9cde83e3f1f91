// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"testing"

	"github.com/tidwall/gjson"
)

func resolve(t *testing.T, doc string) PhoneResolution {
	t.Helper()
	return ResolvePhones(gjson.Parse(doc))
}

func TestResolvePhonesTwilioBody(t *testing.T) {
	res := resolve(t, `{
		"metadata": {"body": {"To": "+15550100", "From": "+15550199"}}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+15550100")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StageBody)
}

func TestResolvePhonesSIPBody(t *testing.T) {
	res := resolve(t, `{
		"metadata": {"body": {"to_number": "+48111222333", "from_number": "+48444555666"}}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+48111222333")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+48444555666")
	checkStringEqual(t, "stage", res.Stage, StageBody)
}

func TestResolvePhonesBodyBeatsDynamicVariables(t *testing.T) {
	res := resolve(t, `{
		"metadata": {"body": {"To": "+15550100"}},
		"conversation_initiation_client_data": {
			"dynamic_variables": {"agent_number": "+19990000", "customer_number": "+15550199"}
		}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+15550100")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StageBody)
}

func TestResolvePhonesPhoneCall(t *testing.T) {
	res := resolve(t, `{
		"metadata": {"phone_call": {"agent_number": "+15550100", "external_number": "+15550199"}}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+15550100")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StagePhoneCall)
}

func TestResolvePhonesDynamicVariables(t *testing.T) {
	res := resolve(t, `{
		"conversation_initiation_client_data": {
			"dynamic_variables": {"customer_phone": "+15550199"}
		}
	}`)

	checkStringPtrNil(t, "agent_phone", res.AgentPhone)
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StageDynamicVariables)
}

func TestResolvePhonesDeepKeySearch(t *testing.T) {
	res := resolve(t, `{
		"metadata": {
			"telephony": {"session": {"dialed_number": "+15550100", "source_number": "+15550199"}}
		}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+15550100")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StageKeySearch)
}

func TestResolvePhonesPatternSearchByPath(t *testing.T) {
	res := resolve(t, `{
		"transcript_meta": {
			"caller_info": "+48 123 456 789",
			"agent_line": "+48 987 654 321"
		}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+48 987 654 321")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+48 123 456 789")
	checkStringEqual(t, "stage", res.Stage, StagePatternSearch)
}

func TestResolvePhonesPositionalFallback(t *testing.T) {
	// No path keywords at all: first match becomes the agent line,
	// second the client.
	res := resolve(t, `{
		"misc": {"x": "+15550100", "y": "+15550199"}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "+15550100")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
	checkStringEqual(t, "stage", res.Stage, StagePatternSearch)
}

func TestResolvePhonesSingleCandidateIsClient(t *testing.T) {
	res := resolve(t, `{"misc": {"x": "+15550199"}}`)

	checkStringPtrNil(t, "agent_phone", res.AgentPhone)
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "+15550199")
}

func TestResolvePhonesNumericLeaf(t *testing.T) {
	// Some integrations emit numbers as JSON numbers rather than
	// strings. A lone numeric candidate resolves as the caller.
	res := resolve(t, `{"foo": {"bar": 48123456789}}`)

	checkStringPtrNil(t, "agent_phone", res.AgentPhone)
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "48123456789")
	checkStringEqual(t, "stage", res.Stage, StagePatternSearch)
}

func TestResolvePhonesNumericLeafClassifiedByPath(t *testing.T) {
	res := resolve(t, `{
		"caller": {"number": 48123456789},
		"agent_line": {"number": 48987654321}
	}`)

	checkStringPtrEqual(t, "agent_phone", res.AgentPhone, "48987654321")
	checkStringPtrEqual(t, "client_phone", res.ClientPhone, "48123456789")
	checkStringEqual(t, "stage", res.Stage, StagePatternSearch)
}

func TestResolvePhonesNone(t *testing.T) {
	res := resolve(t, `{"metadata": {"cost": 0.5}, "status": "done"}`)

	checkStringPtrNil(t, "agent_phone", res.AgentPhone)
	checkStringPtrNil(t, "client_phone", res.ClientPhone)
	checkStringEqual(t, "stage", res.Stage, StageNone)
}

func TestResolvePhonesDeterministic(t *testing.T) {
	doc := `{
		"metadata": {
			"a": {"to_number": "+15550100"},
			"b": {"to_number": "+15550101"},
			"c": {"from_number": "+15550199"}
		}
	}`

	first := resolve(t, doc)
	for i := 0; i < 10; i++ {
		again := resolve(t, doc)
		checkStringPtrEqual(t, "agent_phone", again.AgentPhone, *first.AgentPhone)
		checkStringPtrEqual(t, "client_phone", again.ClientPhone, *first.ClientPhone)
	}
	// Document order decides between competing keys.
	checkStringPtrEqual(t, "agent_phone", first.AgentPhone, "+15550100")
}

func TestPhonePattern(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"+15550100", true},
		{"+48 123 456 789", true},
		{"555-0100-99", true},
		{"123", false},
		{"not a phone", false},
		{"+1555010099999999999", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := phonePattern.MatchString(tt.value); got != tt.want {
			t.Errorf("phonePattern(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
