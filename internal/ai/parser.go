package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"storygen-server/internal/models"
)

// Модели регулярно заворачивают JSON в markdown-ограждение, несмотря на
// прямой запрет в промте. Снимаем ограждение перед парсингом.
var fenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// stripFences удаляет обрамляющее markdown-ограждение (```json ... ```),
// если ответ целиком завернут в него.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if m := fenceRegex.FindStringSubmatch(cleaned); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return cleaned
}

// parseJSONObject парсит ответ модели как JSON-объект со строковыми значениями.
// Нестроковые значения отбрасываются.
func parseJSONObject(raw string) (map[string]string, error) {
	cleaned := stripFences(raw)

	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAIInvalidFormat, err)
	}

	out := make(map[string]string, len(generic))
	for key, value := range generic {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			// Значение не строка: этап считается не сгенерированным
			continue
		}
		out[key] = s
	}
	return out, nil
}

// parseQuestions парсит ответ вида {"questions": ["...", "..."]}.
// Нестроковые элементы массива отбрасываются.
func parseQuestions(raw string) ([]string, error) {
	cleaned := stripFences(raw)

	var envelope struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAIInvalidFormat, err)
	}
	if envelope.Questions == nil {
		return nil, fmt.Errorf("%w: отсутствует ключ \"questions\"", models.ErrAIInvalidFormat)
	}

	questions := make([]string, 0, len(envelope.Questions))
	for _, q := range envelope.Questions {
		var s string
		if err := json.Unmarshal(q, &s); err != nil {
			continue
		}
		questions = append(questions, s)
	}
	return questions, nil
}

// missingContentPlaceholder возвращает текст-заглушку для этапа, который
// модель не сгенерировала или сгенерировала в неверном формате.
func missingContentPlaceholder(stageName string, mode OutputMode) string {
	return fmt.Sprintf("[AI content for %s (%s mode) was not generated or was in an invalid format.]", stageName, mode)
}
