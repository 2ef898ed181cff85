package ai

import (
	"fmt"
	"strings"

	"storygen-server/internal/models"
)

// OutputMode — режим генерации контента этапов.
type OutputMode string

const (
	ModeCreative OutputMode = "creative" // связный нарративный текст
	ModeOutline  OutputMode = "outline"  // план этапа буллет-пунктами
	ModePrompt   OutputMode = "prompt"   // наводящие вопросы для автора
)

// Valid reports whether the mode is one of the known values.
func (m OutputMode) Valid() bool {
	return m == ModeCreative || m == ModeOutline || m == ModePrompt
}

// QuestionAnswer — пара "уточняющий вопрос — ответ автора".
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Требование настоящего времени добавляется ко всем творческим промтам.
const presentTenseInstruction = " Always write in the present tense, as if the events are unfolding in real time—like the story is happening right in front of you. This is a strict requirement."

const defaultCreativeSystemPrompt = "You are a helpful writing assistant. Directly generate a story segment for the specified stage. Format with clear paragraphs. Your output must be only the story segment itself, without any introductory phrases, explanations, or conversational filler."

// stageDetailsList строит список этапов с ID и описаниями для промтов.
func stageDetailsList(stages []models.FrameworkStage) string {
	lines := make([]string, 0, len(stages))
	for _, s := range stages {
		lines = append(lines, fmt.Sprintf("- Stage ID %q: %q (Description: %s)", s.ID, s.Name, s.Description))
	}
	return strings.Join(lines, "\n")
}

// buildQuestionsPrompt строит промт генерации уточняющих вопросов по этапу.
func buildQuestionsPrompt(stage models.FrameworkStage, storyContext, userInstruction string) (system, user string) {
	context := storyContext
	if context == "" {
		context = "No prior context provided."
	}
	instruction := ""
	if userInstruction != "" {
		instruction = fmt.Sprintf("Consider this specific instruction from the user: %q", userInstruction)
	}

	system = fmt.Sprintf(`You are an AI assistant specialized in creative writing and story structure. Your task is to help a writer flesh out a specific stage of their story by generating insightful questions.

The writer is working on the %q stage.
The description of this stage is: %q
The story context developed so far is:
%q
%s

Based on this, generate 3 to 4 open-ended questions that will prompt the user to think critically and creatively about this specific stage. The questions should be tailored to the essence of the stage.
Respond ONLY with a JSON object containing a single key "questions" which is an array of strings. Example: {"questions": ["What is a hidden talent of the hero?", "How does the setting reflect the hero's internal state?"]}`,
		stage.Name, stage.Description, context, instruction)

	user = "Please generate questions based on the system instruction."
	return system, user
}

// buildStageSuggestionPrompt строит промт генерации контента одного этапа.
func buildStageSuggestionPrompt(stage models.FrameworkStage, storyContext string, mode OutputMode, answers []QuestionAnswer, userInstruction string) (system, user string) {
	var base strings.Builder
	fmt.Fprintf(&base, "I am working on the %q stage of my story.\n", stage.Name)
	fmt.Fprintf(&base, "Stage Description: %s\n", stage.Description)
	context := storyContext
	if context == "" {
		context = "No prior context provided."
	}
	fmt.Fprintf(&base, "The story context from previous and current user inputs is:\n%s\n\n", context)

	if len(answers) > 0 {
		base.WriteString("Based on my answers to these clarifying questions:\n")
		for i, qa := range answers {
			answer := qa.Answer
			if answer == "" {
				answer = "(No answer provided)"
			}
			fmt.Fprintf(&base, "Q%d: %s\nA%d: %s\n", i+1, qa.Question, i+1, answer)
		}
		base.WriteString("\n")
	}
	if userInstruction != "" {
		fmt.Fprintf(&base, "Specific instruction for this generation: %s\n\n", userInstruction)
	}

	switch mode {
	case ModeOutline:
		system = fmt.Sprintf(`You are a master story structuralist and creative writer. Your task is to generate a concise, narrative bullet-point outline for the story stage: %q.
This outline should describe 2-4 key events, character actions, or plot points that *happen* within this stage, as if you are summarizing the core beats of the story itself.
It should be a creative scaffold, not instructional advice.
The stage is described as: %q.
Format the output with clear bullet points (e.g., using '*' or '-').
Respond ONLY with the bullet-point outline itself, without any introductory phrases, explanations, or conversational filler.`, stage.Name, stage.Description)
		user = base.String() + "Generate the narrative outline now."

	case ModePrompt:
		system = fmt.Sprintf(`You are an insightful writing coach. Your task is to provide 2-3 thought-provoking guiding questions or prompts to help a writer creatively develop the story stage: %q.
These prompts should inspire the writer to think about character motivations, plot progression, thematic elements, or descriptive details relevant to this stage.
The stage is described as: %q.
Do not write the story content. Respond ONLY with the list of 2-3 questions/prompts, each on a new line.`, stage.Name, stage.Description)
		user = base.String() + "Generate the guiding prompts now."

	default: // ModeCreative
		system = defaultCreativeSystemPrompt + presentTenseInstruction
		user = base.String() + fmt.Sprintf("Now, please generate a compelling story segment for the %q stage, incorporating all the provided information. Ensure the story segment itself is well-paragraphed.", stage.Name)
	}
	return system, user
}

// buildMappingPrompt строит промт разбора свободной идеи по этапам фреймворка.
func buildMappingPrompt(rawStoryIdea string, fw *models.Framework) (system, user string) {
	system = fmt.Sprintf(`You are an expert story analyst and structuralist.
The user has provided a raw story idea and a target story framework. Your task is to intelligently map the user's story idea to the different stages of the provided framework.

The user's raw story idea is:
--- IDEA START ---
%s
--- IDEA END ---

The target story framework is %q, described as: %q.
The stages of this framework (with their IDs) are:
%s

Analyze the raw story idea and distribute its content across these stages.
For each stage ID, provide the relevant segment of the story idea that fits that stage.
If a part of the idea seems to span multiple stages, try to break it down logically.
If a stage has no direct corresponding content in the idea, leave its content as an empty string. Focus on extracting existing content.

Respond ONLY with a JSON object. The keys of this object MUST be the stage IDs (e.g., %q, %q, etc.). The values should be the story content assigned to each stage as a string.
Ensure the output is a single, valid JSON object and nothing else.`,
		rawStoryIdea, fw.Name, fw.Description, stageDetailsList(fw.Stages),
		fw.Stages[0].ID, fw.Stages[1].ID)

	user = "Please map the idea to the framework based on the system instruction."
	return system, user
}

// modeSpecificTask возвращает описание задачи по режиму для полного черновика.
func modeSpecificTask(mode OutputMode) string {
	switch mode {
	case ModeOutline:
		return "generate a concise, narrative bullet-point outline for EACH stage, describing 2-4 key events, character actions, or plot points that *happen* within each stage, as if you are summarizing the core beats of the story itself. The outlines should be creative scaffolds, not instructional advice."
	case ModePrompt:
		return "generate 2-3 insightful guiding questions or thought-provoking prompts for EACH stage to help the user think about how to approach writing that stage."
	default:
		return "generate compelling story content for EACH stage, formatted with clear paragraphs. All story content MUST be written in the present tense, as if the events are unfolding in real time—like the story is happening right in front of you. This is a strict requirement for each stage's content."
	}
}

// buildFullStoryPrompt строит промт генерации полного черновика по идее.
func buildFullStoryPrompt(fw *models.Framework, rawStoryIdea string, mode OutputMode, userInstruction string) (system, user string) {
	system = fmt.Sprintf(`You are an AI story generation assistant. The user will provide a raw story idea, a target story framework (with its name, description, and a list of stages - each stage having an ID, name, and description), and optionally, some overall instructions.
Your task is to %s of the framework, based on the raw story idea and the user's instructions. The generated content for each stage should be detailed and well-written according to the requested mode.
For 'outline' mode, each stage's outline should be bullet points. For 'prompt' mode, each stage should get a list of questions/prompts. For 'creative' mode, each stage should be a narrative segment.
The output MUST be a valid JSON object where keys are the stage IDs from the provided framework, and values are the generated strings (story segment, outline, or prompts) for those respective stages.
Example output for a framework with stages 'intro' and 'climax' in '%s' mode:
{
  "intro": "Generated content for the intro stage in %s mode...",
  "climax": "Generated content for the climax stage in %s mode..."
}
Do not include any other text, explanations, or markdown formatting around the JSON object. Ensure each stage receives substantial, relevant content based on the overall idea and requested mode.`,
		modeSpecificTask(mode), mode, mode, mode)

	instruction := userInstruction
	if instruction == "" {
		instruction = "None. Focus on creativity and adherence to the framework structure and selected output mode based on the idea."
	}
	user = fmt.Sprintf(`Raw Story Idea:
--- IDEA START ---
%s
--- IDEA END ---

Framework: %s (%s)
Stages:
%s

Output Mode Requested: %s
User Instructions for entire story (if any): %s

Please generate the full story draft according to these details and the system instruction.`,
		rawStoryIdea, fw.Name, fw.Description, stageDetailsList(fw.Stages), mode, instruction)
	return system, user
}

// buildCompletionPrompt строит промт достройки незаполненных этапов.
func buildCompletionPrompt(fw *models.Framework, existing map[string]string, emptyStages []models.FrameworkStage, mode OutputMode, userInstruction string) (system, user string) {
	var filled strings.Builder
	for _, s := range fw.Stages {
		content := strings.TrimSpace(existing[s.ID])
		if content == "" {
			continue
		}
		fmt.Fprintf(&filled, "Stage: %s (ID: %s)\nDescription: %s\nContent:\n%s\n---\n\n", s.Name, s.ID, s.Description, existing[s.ID])
	}
	filledDetails := strings.TrimSpace(filled.String())
	if filledDetails == "" {
		filledDetails = "No prior content provided for filled stages."
	}

	instruction := userInstruction
	if instruction == "" {
		instruction = "None. Focus on creativity, logical continuation from existing content, adherence to the framework structure, and the selected output mode."
	}

	var task string
	switch mode {
	case ModeOutline:
		task = "generate a concise, narrative bullet-point outline for EACH of the listed REMAINING STAGES. Each outline should describe 2-4 key events or plot points within that stage."
	case ModePrompt:
		task = "generate 2-3 insightful guiding questions or thought-provoking prompts for EACH of the listed REMAINING STAGES to help the user write that stage."
	default:
		task = "generate compelling story content for EACH of the listed REMAINING STAGES, formatted with clear paragraphs. All story content MUST be written in the present tense, as if the events are unfolding in real time. This is a strict requirement for each stage's content."
	}

	system = fmt.Sprintf(`You are an AI story generation assistant. The user is partially through writing a story using the %q framework and needs help completing the remaining stages.
Framework Description: %q

Existing Story Content (if any):
%s

Remaining Stages to Generate Content For:
%s

Output Mode Requested: %s
User Instructions for completing story (if any): %s

Your task is to %s.
The output MUST be a valid JSON object where keys are the stage IDs of ONLY THE NEWLY GENERATED STAGES (i.e., the 'Remaining Stages' listed above), and values are the generated strings for those respective stages.
Do not include stages for which content was already provided by the user in your JSON response.
Ensure each generated stage receives substantial, relevant content.`,
		fw.Name, fw.Description, filledDetails, stageDetailsList(emptyStages), mode, instruction, task)

	user = "Based on the existing story content and the framework details, please generate content for the remaining empty stages as per the system instruction."
	return system, user
}
