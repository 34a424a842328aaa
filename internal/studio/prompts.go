package studio

import (
	"fmt"
	"strings"

	"soura-masreya/internal/scene"
)

const expansionTemperature = 0.9

var shotInstructions = map[scene.ShotType]string{
	scene.ShotCloseUp:       "Focus the description on a close-up shot, emphasizing facial expression and small details.",
	scene.ShotMedium:        "Frame the description as a medium shot, from the subject's waist up, showing their interaction with the immediate surroundings.",
	scene.ShotFullBody:      "Describe the scene as a full-body shot, detailing their posture and how they fit into the environment.",
	scene.ShotEnvironmental: "Describe a wide, environmental scene where the subject is a small but important element, emphasizing the atmosphere and scale of the location.",
}

const directorRules = `Rules:
- The final scene MUST be set in modern-day, contemporary Egypt.
- No clichés or pharaonic stereotypes unless explicitly requested.
- The environment, clothing, and people should reflect Egypt today.
- The output MUST be a single, continuous paragraph.
- Do NOT use lists or bullet points.
- Describe a natural, candid activity related to the user's idea.
- Include specific details about the environment, lighting, and clothing.
- The tone should be descriptive and narrative.`

func expansionSystem(shot scene.ShotType) string {
	var b strings.Builder
	b.WriteString("You are a creative director specialized in modern, realistic Egyptian lifestyle photography.\n")
	b.WriteString("Your job is to take a short idea and turn it into a vivid, cinematic scene description that feels authentic, unposed, and full of realistic detail.")
	if instr := shotInstructions[shot]; instr != "" {
		b.WriteString(" ")
		b.WriteString(instr)
	}
	b.WriteString("\n\n")
	b.WriteString(directorRules)
	return b.String()
}

func expansionPrompt(idea string, persona scene.Persona) string {
	subject := persona.Description()
	if subject == "" {
		subject = "A person"
	}
	return fmt.Sprintf("User's idea: \"%s\"\nSubject: %s.\n\nExpand this into a full, detailed scene description.", idea, subject)
}

func imagePrompt(description string, aesthetic Aesthetic, aspect AspectRatio, signature string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are generating a brand-new, high-resolution photograph that must match aspect ratio: %s.\n\n", aspect)
	fmt.Fprintf(&b, "SCENE DESCRIPTION:\n\"%s\"\n\n", description)
	fmt.Fprintf(&b, "AESTHETIC STYLE:\n%s\n", aesthetic.instructions())
	if signature != "" {
		fmt.Fprintf(&b, "\nSubtly integrate the signature \"%s\" into the environment (for example on a coffee cup, shop sign, or small detail), not as a big watermark.\n", signature)
	}
	return strings.TrimSpace(b.String())
}
