package room

import "math/rand/v2"

var (
	adjectives = []string{
		"Amber", "Brave", "Crimson", "Drifting", "Echoing", "Frozen", "Gilded", "Hidden",
		"Iron", "Jade", "Lunar", "Misty", "Noble", "Obsidian", "Silent", "Velvet",
	}
	nouns = []string{
		"Spire", "Bridge", "Comet", "Falcon", "Harbor", "Lantern", "Monolith", "Nebula",
		"Orchid", "Pillar", "Quasar", "Summit", "Tower", "Vortex", "Warden", "Zenith",
	}
)

// randomName returns an "Adjective-Noun" room label.
func randomName(rng *rand.Rand) string {
	return adjectives[rng.IntN(len(adjectives))] + "-" + nouns[rng.IntN(len(nouns))]
}
