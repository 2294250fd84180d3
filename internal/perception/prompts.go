package perception

import (
	"fmt"
	"strings"
)

// extractionSystemPrompt keeps extraction literal.
const extractionSystemPrompt = "Extract facts strictly and literally from the story. Do not infer, guess or add facts that are not stated. Return only JSON."

// rewriteSystemPrompt keeps the editor from commenting on its own work.
const rewriteSystemPrompt = "You are a story editor. You return only the rewritten story text."

const extractionPromptTemplate = `You are an information extraction system.
Your task is to analyze the story and return a JSON object.
Your JSON response MUST have a root key "data".
The value of "data" should be an object containing lists for "people", "cities", "landmarks", "climates", "weather", and "travels".

1.  For 'people', create a list of objects. Each person object should have:
    - "id": (string, a unique name for the person, e.g., "demo:Alice")
    - "livesInCityID": (string, the ID of the city the person lives in, e.g., "city:Beijing", if mentioned)
    - "age": (int, e.g., 17)
    - "isMarriedTo": (string, the ID of the person they married, e.g., "demo:Bob")
    - "isAllergicTo": (string, the ID of the allergen, e.g., "ia2025:Flour")
    - "eats": (list of strings, e.g., ["ia2025:Bread"])
    - "worksAs": (string, the ID of the occupation, e.g., "demo:Baker")
    - "usesTool": (list of strings, e.g., ["demo:Oven"])
    - "hasCondition": (list of strings, e.g., ["demo:Anemia", "city:ObesityIncrease"])
    - "isReserved": (boolean)
    - "talksToCount": (int, the number of people they talk to)

2.  For 'cities', create a list of objects. Each city object should have:
    - "id": (string, a unique name, e.g., "city:London")
    - "type": (string, e.g., "city:WalkableCity")
    - "terrain": (string, e.g., "city:Mountainous")
    - "population": (int)
    - "isAdjacentTo": (list of strings, the IDs of neighbouring cities)
    - "climateZone": (string, optional, e.g., "travel:Desert")

3.  For 'landmarks', create a list of objects. Each landmark object should have:
    - "id": (string, e.g., "city:EmpireStateBuilding")
    - "type": (string, e.g., "city:SubwaySystem")
    - "locatedIn": (list of strings, e.g., ["city:NewYork", "city:LosAngeles"])

4.  For 'travels', create a list of objects. Each travel object should have:
    - "id": (string, e.g., "travel:Walk1")
    - "mode": (string, e.g., "travel:Walking")
    - "distance": (float, in km)
    - "duration": (float, in hours)
    - "cost": (float)

5.  For 'climates', create a list of objects. Each climate object should have:
    - "id": (string, e.g., "travel:SaharaClimate")
    - "climateZone": (string, e.g., "travel:Desert")
    - "allowsForFood": (boolean)
    - "cities": (list of strings, the IDs of cities with this climate, e.g., ["city:Cairo"])

6.  For 'weather', create a list of objects. Each weather object should have:
    - "id": (string, e.g., "travel:Weather1")
    - "weatherState": (string, e.g., "travel:Snow")
    - "temperature": (float, in degrees Celsius)

Base entity IDs on the name (e.g., 'Alice' becomes 'demo:Alice', 'Paris' becomes 'city:Paris').
Only include keys if the information is present in the story. Use correct prefixes (demo:, city:, ia2025:, travel:).
Return ONLY the JSON object.

Story to analyze:
%s
`

const rewritePromptTemplate = `You are a story editor. Your task is to rewrite the following story ONLY to fix the logical inconsistencies listed below.
Apply the ABSOLUTE MINIMAL change necessary.

**Crucially, if the inconsistency involves a conflict between a described trait (like 'reserved') and a described action (like 'talks to many people'), you MUST choose EITHER the trait OR the action to keep and REMOVE the conflicting part.**

Maintain the original language (English), style, and overall plot.
DO NOT add any commentary, explanation, or text other than the rewritten story itself.

Original Story:
"%s"

Detected Inconsistencies:
%s

Example fix for "reserved vs talks to many":
Option A (Keep 'reserved'): "Luca is described as 'very reserved.' He preferred to keep to himself at the office."
Option B (Keep 'talks to many'): "Luca, despite initial impressions, chatted with at least six different people every day at the office."

Rewritten Story (English, minimal changes, choose ONE option if traits conflict, only the story text):
`

// BuildExtractionPrompt renders the extraction prompt for story.
func BuildExtractionPrompt(story string) string {
	return fmt.Sprintf(extractionPromptTemplate, strings.TrimSpace(story))
}

// BuildRewritePrompt renders the rewrite prompt. Violations are listed one
// per line.
func BuildRewritePrompt(original string, violations []string) string {
	return fmt.Sprintf(rewritePromptTemplate, strings.TrimSpace(original), strings.Join(violations, "\n"))
}
