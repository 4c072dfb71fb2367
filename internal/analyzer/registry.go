package analyzer

// BuiltinSpecs returns the nine stock analyzers shipped with the pipeline,
// grounded on original_source/src/analyzers/registry.py's BUILTIN_FILES
// table (four Stage A, four Stage B, one Final). Prompt bodies are
// generalized, Go-template equivalents of the corresponding
// original_source/src/analyzers/<stage>/<slug>.py prompt, each requiring
// the variable its stage's scheduler binding supplies ({{.transcript}} for
// Stage A, {{.previous_analyses}} for Stage B and Final). No template uses
// a variable named context.
func BuiltinSpecs() (stageA, stageB, final []Spec) {
	stageA = []Spec{
		NewSpec("say_means", StageA, "stage_a/say_means",
			sayMeansPrompt, "gpt-4o-mini", 0.2, 1200),
		NewSpec("perspective_perception", StageA, "stage_a/perspective_perception",
			perspectivePerceptionPrompt, "gpt-4o-mini", 0.3, 1200),
		NewSpec("premises_assertions", StageA, "stage_a/premises_assertions",
			premisesAssertionsPrompt, "gpt-4o-mini", 0.2, 1200),
		NewSpec("postulate_theorem", StageA, "stage_a/postulate_theorem",
			postulateTheoremPrompt, "gpt-4o-mini", 0.3, 1200),
	}
	stageB = []Spec{
		NewSpec("competing_hypotheses", StageB, "stage_b/competing_hypotheses",
			competingHypothesesPrompt, "gpt-4o-mini", 0.3, 1500),
		NewSpec("first_principles", StageB, "stage_b/first_principles",
			firstPrinciplesPrompt, "gpt-4o-mini", 0.3, 1500),
		NewSpec("determining_factors", StageB, "stage_b/determining_factors",
			determiningFactorsPrompt, "gpt-4o-mini", 0.2, 1500),
		NewSpec("patentability", StageB, "stage_b/patentability",
			patentabilityPrompt, "gpt-4o-mini", 0.2, 1500),
	}
	final = []Spec{
		NewSpec("meeting_notes", StageFinal, "final/meeting_notes",
			meetingNotesPrompt, "gpt-4o-mini", 0.2, 2000),
	}
	return stageA, stageB, final
}

const sayMeansPrompt = `Analyze the following meeting transcript. For each
notable remark, separate what was literally said from what the speaker
likely meant. List insights as bullet points and wrap any named concept in
[[double brackets]].

Transcript:
{{.transcript}}
`

const perspectivePerceptionPrompt = `Analyze the following meeting transcript.
Identify each speaker's apparent perspective and how they perceived the
positions of others. List insights as bullet points and wrap named concepts
in [[double brackets]].

Transcript:
{{.transcript}}
`

const premisesAssertionsPrompt = `Analyze the following meeting transcript.
Separate stated premises (assumed true without argument) from assertions
(claims offered as conclusions). List insights as bullet points and wrap
named concepts in [[double brackets]].

Transcript:
{{.transcript}}
`

const postulateTheoremPrompt = `Analyze the following meeting transcript.
Identify any postulates (accepted without proof) and theorems (conclusions
the speakers argued for) raised during the discussion. List insights as
bullet points and wrap named concepts in [[double brackets]].

Transcript:
{{.transcript}}
`

const competingHypothesesPrompt = `Given the combined Stage A analysis
below, enumerate the competing hypotheses raised about what is really going
on, and weigh the evidence for and against each. List insights as bullet
points.

Stage A context:
{{.previous_analyses}}
`

const firstPrinciplesPrompt = `Given the combined Stage A analysis below,
decompose the discussion down to its first principles: the irreducible
facts and constraints nothing else depends on. List insights as bullet
points.

Stage A context:
{{.previous_analyses}}
`

const determiningFactorsPrompt = `Given the combined Stage A analysis
below, identify the factors that will actually determine the outcome of
the decisions discussed, ranked by how much weight each carries. List
insights as bullet points.

Stage A context:
{{.previous_analyses}}
`

const patentabilityPrompt = `Given the combined Stage A analysis below,
assess whether anything discussed looks like a novel, non-obvious technical
idea worth protecting, and flag any prior-art concerns raised. List
insights as bullet points.

Stage A context:
{{.previous_analyses}}
`

const meetingNotesPrompt = `Given the combined Stage A and Stage B analysis
below, write final meeting notes: a short summary, then explicit sections
for Action Items (with owner and due date when known), Decisions, and
Risks. Use a "- [ ] Owner: ... Due: ..." style for action items.

Combined context:
{{.previous_analyses}}
`
