// Package catalog содержит встроенный каталог повествовательных фреймворков.
// Каталог неизменяемый: фреймворки компилируются в бинарник и раздаются
// клиентам как справочник.
package catalog

import "storygen-server/internal/models"

// storyFrameworks — канонический список фреймворков в порядке показа.
var storyFrameworks = []models.Framework{
	{
		ID:          "herosJourney",
		Name:        "Hero's Journey",
		Description: "A classic narrative pattern involving a hero who goes on an adventure, learns a lesson, wins a victory with that newfound knowledge, and then returns home transformed.",
		Stages: []models.FrameworkStage{
			{ID: "ordinaryWorld", Name: "1. The Ordinary World", Description: "The hero's normal life before the adventure begins."},
			{ID: "callToAdventure", Name: "2. The Call to Adventure", Description: "The hero is presented with a problem, challenge, or adventure."},
			{ID: "refusalOfTheCall", Name: "3. Refusal of the Call", Description: "The hero is reluctant or refuses the call."},
			{ID: "meetingTheMentor", Name: "4. Meeting the Mentor", Description: "The hero encounters a mentor who prepares them for the journey."},
			{ID: "crossingTheThreshold", Name: "5. Crossing the First Threshold", Description: "The hero commits to the adventure and enters the special world."},
			{ID: "testsAlliesEnemies", Name: "6. Tests, Allies, and Enemies", Description: "The hero faces tests, meets allies, and confronts enemies."},
			{ID: "approachToTheInmostCave", Name: "7. Approach to the Inmost Cave", Description: "The hero approaches the central ordeal or conflict."},
			{ID: "ordeal", Name: "8. The Ordeal", Description: "The hero faces a major crisis, often a life-or-death situation."},
			{ID: "reward", Name: "9. Reward (Seizing the Sword)", Description: "The hero overcomes the crisis and gains a reward."},
			{ID: "theRoadBack", Name: "10. The Road Back", Description: "The hero begins the journey back to the ordinary world."},
			{ID: "resurrection", Name: "11. The Resurrection", Description: "The hero faces a final, most dangerous encounter."},
			{ID: "returnWithTheElixir", Name: "12. Return with the Elixir", Description: "The hero returns with something to transform the ordinary world."},
		},
	},
	{
		ID:          "storyCircle",
		Name:        "Dan Harmon's Story Circle",
		Description: "An 8-step structure focusing on a character's journey of need, search, finding, taking, and returning changed.",
		Stages: []models.FrameworkStage{
			{ID: "you", Name: "1. YOU (A character is in a zone of comfort)", Description: "Establish the protagonist and their ordinary world."},
			{ID: "need", Name: "2. NEED (But they want something)", Description: "The protagonist has a desire or a problem."},
			{ID: "go", Name: "3. GO (They enter an unfamiliar situation)", Description: "The protagonist crosses a threshold into a new world."},
			{ID: "search", Name: "4. SEARCH (Adapt to it)", Description: "The protagonist faces trials and tribulations."},
			{ID: "find", Name: "5. FIND (Get what they wanted)", Description: "The protagonist achieves their initial goal."},
			{ID: "take", Name: "6. TAKE (Pay a heavy price for it)", Description: "The protagonist faces consequences for their actions."},
			{ID: "return", Name: "7. RETURN (Return to their familiar situation)", Description: "The protagonist starts the journey back."},
			{ID: "change", Name: "8. CHANGE (Having changed)", Description: "The protagonist is transformed by their journey."},
		},
	},
	{
		ID:          "sixStagePlot",
		Name:        "Michael Hauge's 6-Stage Plot Structure",
		Description: "A structure that emphasizes character arc and emotional journey through six key stages, including two major turning points.",
		Stages: []models.FrameworkStage{
			{ID: "setup", Name: "Stage 1: The Setup", Description: "Introduce the protagonist in their everyday life, showing their identity and current situation before major changes."},
			{ID: "newSituation", Name: "Stage 2: The New Situation (Inciting Incident)", Description: "An event that thrusts the protagonist into a new, unfamiliar situation, often around the 10% mark."},
			{ID: "turningPoint1", Name: "Stage 3: Turning Point #1 (End of Act I)", Description: "The protagonist makes a choice or takes an action that fully commits them to a new path, around the 25% mark."},
			{ID: "risingAction", Name: "Stage 4: Rising Action (Progress)", Description: "The protagonist struggles to achieve their goal, facing obstacles and growing, from 25% to 75% mark."},
			{ID: "turningPoint2", Name: "Stage 5: Turning Point #2 (End of Act II)", Description: "A major event where all seems lost or the protagonist must make a crucial decision, often a crisis point, around the 75% mark."},
			{ID: "climaxAndResolution", Name: "Stage 6: Climax and Resolution (Act III)", Description: "The final confrontation and its aftermath, showing the protagonist achieving their goal (or not) and their ultimate transformation."},
		},
	},
}

// Frameworks возвращает копию списка фреймворков в каноническом порядке.
func Frameworks() []models.Framework {
	out := make([]models.Framework, len(storyFrameworks))
	copy(out, storyFrameworks)
	return out
}

// FrameworkByID возвращает фреймворк по идентификатору.
func FrameworkByID(id string) (*models.Framework, error) {
	for i := range storyFrameworks {
		if storyFrameworks[i].ID == id {
			return &storyFrameworks[i], nil
		}
	}
	return nil, models.ErrFrameworkNotFound
}
