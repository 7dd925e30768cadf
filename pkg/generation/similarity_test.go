package generation

import "testing"

func TestDefaultSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"What is photosynthesis?", "what is photosynthesis", true},
		{"What is  photosynthesis!", "WHAT IS PHOTOSYNTHESIS", true},
		{"name the capital of France", "name the capital of France now", true},
		{"what is photosynthesis", "how do plants store energy", false},
		// contained but far shorter, length ratio disqualifies
		{"photosynthesis", "photosynthesis is the process by which plants convert light into chemical energy", false},
		{"", "", true},
		{"", "something", false},
		// non-Latin scripts keep their letters and stay distinguishable
		{"Что такое фотосинтез?", "Назовите столицу Франции", false},
		{"Что такое фотосинтез?", "что такое фотосинтез", true},
		{"光合作用是什么？", "植物如何储存能量？", false},
		{"Qu'est-ce que la photosynthèse ?", "questce que la photosynthèse", true},
	}

	for _, c := range cases {
		if got := DefaultSimilarity(c.a, c.b); got != c.want {
			t.Errorf("DefaultSimilarity(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
		if got := DefaultSimilarity(c.b, c.a); got != c.want {
			t.Errorf("DefaultSimilarity(%q, %q) = %v, want %v", c.b, c.a, got, c.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"  What IS   photosynthesis?! ": "what is photosynthesis",
		"Q1: name\tthe capital":         "q1 name the capital",
		"...":                           "",
		"Что такое фотосинтез?":         "что такое фотосинтез",
		"École number 5":                "école number 5",
	}
	for input, want := range cases {
		if got := normalizeText(input); got != want {
			t.Errorf("normalizeText(%q) = %q, want %q", input, got, want)
		}
	}
}
