// internal/orchestrator/rules.go
package orchestrator

import (
	"github.com/user/kisanmitra/internal/types"
)

// intentRule is one fast-path guard: if it matches, the intent is fixed
// without a classifier call.
type intentRule struct {
	name  string
	match func(*types.Request) (types.Intent, bool)
}

// fastPathRules are checked in order before falling back to the
// classifier. Explicit query type wins, then modality.
var fastPathRules = []intentRule{
	{
		name: "explicit query type",
		match: func(r *types.Request) (types.Intent, bool) {
			if r.QueryType != "" && r.QueryType != types.IntentUnknown {
				return r.QueryType, true
			}
			return "", false
		},
	},
	{
		name: "image input",
		match: func(r *types.Request) (types.Intent, bool) {
			if r.InputType == types.InputImage {
				return types.IntentDiseaseDetection, true
			}
			return "", false
		},
	},
	{
		name: "audio input",
		match: func(r *types.Request) (types.Intent, bool) {
			if r.InputType == types.InputAudio {
				return types.IntentTranscription, true
			}
			return "", false
		},
	},
}

// resolveFastPath returns the intent determined by the guard rules, or
// false when the classifier must decide.
func resolveFastPath(req *types.Request) (types.Intent, string, bool) {
	for _, rule := range fastPathRules {
		if intent, ok := rule.match(req); ok {
			return intent, rule.name, true
		}
	}
	return "", "", false
}
