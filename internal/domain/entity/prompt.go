package entity

import "fmt"

type Prompt struct {
	ID   string
	Text string
}

func FunctionPrompt(description string, lang Language) Prompt {
	if lang == LanguagePython {
		return Prompt{
			ID: "function",
			Text: "You are an expert Python developer. Output ONLY valid Python 3 code (no explanation).\n" +
				"Write a function with signature exactly as described.\n" +
				fmt.Sprintf("Description: %s\n", description),
		}
	}
	return Prompt{ID: "function", Text: genericPrompt(description, lang)}
}

func ClassPrompt(description string, lang Language) Prompt {
	if lang == LanguagePython {
		return Prompt{
			ID: "class",
			Text: "You are an expert Python developer. Output ONLY valid Python 3 code (no explanation).\n" +
				"Write a class as described.\n" +
				fmt.Sprintf("Description: %s\n", description),
		}
	}
	return Prompt{ID: "class", Text: genericPrompt(description, lang)}
}

func APIPrompt(description string, lang Language) Prompt {
	if lang == LanguagePython {
		return Prompt{
			ID: "api",
			Text: "You are an expert Python developer. Output ONLY valid Python 3 code for an API endpoint (no explanation).\n" +
				"Write a small API scaffold as described.\n" +
				fmt.Sprintf("Description: %s\n", description),
		}
	}
	return Prompt{ID: "api", Text: genericPrompt(description, lang)}
}

// TestPrompt asks for unit tests of the described function or module.
func TestPrompt(description string, lang Language) Prompt {
	if lang == LanguagePython {
		return Prompt{
			ID: "test",
			Text: "You are an expert Python developer and test engineer. " +
				"Output ONLY pytest-compatible Python unit tests (no explanation).\n" +
				fmt.Sprintf("Target: %s\n", description) +
				"Write concise, deterministic unit tests that cover edge cases and typical cases. " +
				"Use simple inputs and assert exact outputs. Use only code (no markdown).\n",
		}
	}
	name := lang.DisplayName()
	return Prompt{
		ID: "test",
		Text: fmt.Sprintf("You are an expert %s developer and test engineer. Output ONLY tests for %s "+
			"(no explanation). Target: %s\n", name, name, description),
	}
}

func SQLPrompt(description string) Prompt {
	return Prompt{
		ID: "sql",
		Text: "You are an SQL expert. Output ONLY a single optimized SQL query (no explanation).\n" +
			fmt.Sprintf("Description: %s\n", description) +
			"Prefer readable formatting and avoid vendor-specific functions unless requested.",
	}
}

func genericPrompt(description string, lang Language) string {
	return fmt.Sprintf("You are an expert %s developer. Output ONLY code. Description: %s\n", lang.DisplayName(), description)
}
