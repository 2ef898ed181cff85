// Package export собирает документ черновика истории и рендерит его
// в Markdown или плоский текст.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"storygen-server/internal/models"
)

// Format — формат экспортируемого документа.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Valid reports whether the format is one of the known values.
func (f Format) Valid() bool {
	return f == FormatMarkdown || f == FormatText
}

// Extension returns the file extension used for downloads of this format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "txt"
}

// Options управляют составом экспортируемого документа.
type Options struct {
	IncludeOriginalIdea        bool `json:"include_original_idea"`
	IncludeFrameworkTitle      bool `json:"include_framework_title"`
	IncludeStageTitles         bool `json:"include_stage_titles"`
	IncludeContinuousNarrative bool `json:"include_continuous_narrative"`
}

// Заглушки для пустых секций документа.
const (
	emptyStagePlaceholder     = "[No content for this stage]"
	emptyNarrativePlaceholder = "[No story content available to form a continuous narrative.]"
)

var unsafeFilenameChars = regexp.MustCompile(`(?i)[^a-z0-9_.\s-]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// SafeFilename приводит название проекта к безопасному имени файла.
func SafeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	safe = whitespaceRun.ReplaceAllString(safe, "_")
	return strings.ToLower(safe)
}

func formatProjectDate(t time.Time) string {
	return t.Format("January 2, 2006, 03:04 PM")
}

// continuousNarrative склеивает контент этапов в сплошное повествование.
func continuousNarrative(project *models.Project, fw *models.Framework) string {
	parts := make([]string, 0, len(fw.Stages))
	for _, s := range fw.Stages {
		parts = append(parts, project.StageContent(s.ID))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Render рендерит документ проекта в указанном формате.
func Render(project *models.Project, fw *models.Framework, opts Options, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(project, fw, opts), nil
	case FormatText:
		return renderText(project, fw, opts), nil
	default:
		return "", fmt.Errorf("%w: неизвестный формат экспорта %q", models.ErrInvalidInput, format)
	}
}

func renderMarkdown(project *models.Project, fw *models.Framework, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", project.Title)
	if opts.IncludeFrameworkTitle {
		fmt.Fprintf(&b, "## Framework: %s\n\n", fw.Name)
	}
	fmt.Fprintf(&b, "*Last Modified: %s*\n\n", formatProjectDate(project.UpdatedAt))

	if opts.IncludeOriginalIdea && project.HasRawIdea() && strings.TrimSpace(*project.RawStoryIdea) != "" {
		b.WriteString("### Original Story Idea\n\n")
		b.WriteString(*project.RawStoryIdea)
		b.WriteString("\n\n")
	}

	// Всегда сначала посекционная структура
	for _, stage := range fw.Stages {
		content := project.StageContent(stage.ID)
		if opts.IncludeStageTitles {
			fmt.Fprintf(&b, "### %s\n\n", stage.Name)
			fmt.Fprintf(&b, "*%s*\n\n", stage.Description)
		}
		if strings.TrimSpace(content) != "" {
			b.WriteString(content)
			b.WriteString("\n\n")
		} else if opts.IncludeStageTitles {
			fmt.Fprintf(&b, "*%s*\n\n", emptyStagePlaceholder)
		}
	}

	// Сплошное повествование добавляется только без заголовков этапов
	if opts.IncludeContinuousNarrative && !opts.IncludeStageTitles {
		b.WriteString("# Continuous Narrative\n\n")
		if narrative := continuousNarrative(project, fw); narrative != "" {
			b.WriteString(narrative)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "*%s*\n", emptyNarrativePlaceholder)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderText(project *models.Project, fw *models.Framework, opts Options) string {
	var b strings.Builder

	b.WriteString(project.Title + "\n")
	b.WriteString(strings.Repeat("=", len(project.Title)) + "\n\n")
	if opts.IncludeFrameworkTitle {
		fmt.Fprintf(&b, "Framework: %s\n\n", fw.Name)
	}
	fmt.Fprintf(&b, "Last Modified: %s\n\n", formatProjectDate(project.UpdatedAt))

	if opts.IncludeOriginalIdea && project.HasRawIdea() && strings.TrimSpace(*project.RawStoryIdea) != "" {
		b.WriteString("Original Story Idea\n-------------------\n\n")
		b.WriteString(*project.RawStoryIdea)
		b.WriteString("\n\n")
	}

	for _, stage := range fw.Stages {
		content := project.StageContent(stage.ID)
		if opts.IncludeStageTitles {
			b.WriteString(stage.Name + "\n")
			b.WriteString(strings.Repeat("-", len(stage.Name)) + "\n")
			b.WriteString(stage.Description + "\n\n")
		}
		if strings.TrimSpace(content) != "" {
			b.WriteString(content)
			b.WriteString("\n\n")
		} else if opts.IncludeStageTitles {
			b.WriteString(emptyStagePlaceholder + "\n\n")
		}
	}

	if opts.IncludeContinuousNarrative && !opts.IncludeStageTitles {
		b.WriteString("Continuous Narrative\n====================\n\n")
		if narrative := continuousNarrative(project, fw); narrative != "" {
			b.WriteString(narrative)
			b.WriteString("\n")
		} else {
			b.WriteString(emptyNarrativePlaceholder + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
