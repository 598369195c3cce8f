package llm

import (
	"context"
	"regexp"
	"strings"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

var _ repository.TunableModel = DummyModel{}

var arithmeticWordRe = regexp.MustCompile(`(?i)\b(?:add|adds|sum)\b`)

// DummyModel returns canned snippets picked by prompt keywords. It keeps the
// tool usable offline and in demos.
type DummyModel struct{}

func (DummyModel) Generate(_ context.Context, prompt string) (string, error) {
	metrics.IncModelRequest(BackendDummy, BackendDummy)
	return cannedOutput(prompt), nil
}

func (d DummyModel) GenerateWithParams(ctx context.Context, prompt string, _ entity.SamplingParams) (string, error) {
	return d.Generate(ctx, prompt)
}

func cannedOutput(prompt string) string {
	p := strings.ToLower(prompt)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(p, w) {
				return true
			}
		}
		return false
	}

	switch {
	case arithmeticWordRe.MatchString(prompt) || has("def add") || (has("python") && has("function")):
		return "def add(a: int, b: int) -> int:\n" +
			"    \"\"\"Return the sum of two integers.\"\"\"\n" +
			"    return a + b\n"
	case has("class"):
		return "class Person:\n" +
			"    def __init__(self, name: str, age: int):\n" +
			"        self.name = name\n" +
			"        self.age = age\n\n" +
			"    def greet(self) -> str:\n" +
			"        return f'Hello, my name is {self.name}'\n"
	case has("pytest", "unit test", "test_"):
		return "def test_add_positive():\n" +
			"    assert add(1, 2) == 3\n\n" +
			"def test_add_zero():\n" +
			"    assert add(0, 5) == 5\n\n" +
			"def test_add_negative():\n" +
			"    assert add(-1, -2) == -3\n"
	case has("select", "from", "where"):
		return "SELECT id, username, last_login\n" +
			"FROM users\n" +
			"WHERE last_login >= '2024-01-01'\n" +
			"ORDER BY last_login DESC\n" +
			"LIMIT 5;"
	case has("express", "api", "fastapi"):
		return "from fastapi import FastAPI\n\n" +
			"app = FastAPI()\n\n" +
			"@app.get('/health')\n" +
			"def health():\n" +
			"    return {'status': 'ok'}\n"
	default:
		return "# Generated placeholder\n" +
			"def placeholder():\n" +
			"    '''This is a placeholder output from DummyModel.'''\n" +
			"    return None\n"
	}
}
