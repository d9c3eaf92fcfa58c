package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/ai/agent"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/ai/search"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

const (
	// resultsPerQuestion caps how many sources one research question collects.
	resultsPerQuestion = 2
	// searchWindow restricts research sources to recently published content.
	searchWindow = 180 * 24 * time.Hour
	// maxLinkContentChars truncates scraped pages before summarization.
	maxLinkContentChars = 25000
	// synthesisGuardTTL bounds one synthesis run. A crashed run frees the
	// guard after this long so a retry can take over.
	synthesisGuardTTL = 6 * time.Hour

	maxLinkTitleChars = 500
	maxAuthorChars    = 250
	maxQuestionChars  = 250
)

// StartGeneration creates the post for a suggestion and kicks off the
// pipeline. It fails when the account's monthly generation allowance is used
// up or the suggestion already has a post.
func (a *App) StartGeneration(ctx context.Context, accountID, suggestionID string) (domain.Post, error) {
	suggestion, err := a.getScopedSuggestion(ctx, accountID, suggestionID)
	if err != nil {
		return domain.Post{}, err
	}
	if existing, err := a.store.GetPostBySuggestion(ctx, suggestionID); err == nil {
		return existing, nil
	} else if apperrors.CodeOf(err) != apperrors.CodePostNotFound {
		return domain.Post{}, err
	}

	if err := a.checkAllowance(ctx, accountID); err != nil {
		return domain.Post{}, err
	}

	slug, err := a.uniqueSlug(ctx, suggestion.ProjectID, suggestion.Title)
	if err != nil {
		return domain.Post{}, err
	}
	postID, err := id.NewID()
	if err != nil {
		return domain.Post{}, err
	}
	now := a.now()
	post := domain.Post{
		ID:           postID,
		ProjectID:    suggestion.ProjectID,
		SuggestionID: suggestion.ID,
		Title:        suggestion.Title,
		Description:  suggestion.MetaDescription,
		Slug:         slug,
		Tags:         strings.Join(suggestion.TargetKeywords, ", "),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreatePost(ctx, post); err != nil {
		return domain.Post{}, err
	}

	_, err = a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskOutline,
		Payload:   PostPayload{PostID: post.ID},
		DedupeKey: TaskOutline + ":" + post.ID,
	})
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (a *App) checkAllowance(ctx context.Context, accountID string) error {
	limit, err := a.plans.GenerationLimit(ctx, accountID)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return apperrors.New(apperrors.CodeAccountGenerationLimit, "plan does not allow post generation")
	}
	projects, err := a.projects.ListProjects(ctx, accountID)
	if err != nil {
		return err
	}
	projectIDs := make([]string, 0, len(projects))
	for _, project := range projects {
		projectIDs = append(projectIDs, project.ID)
	}
	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	used, err := a.store.CountGenerationsSince(ctx, projectIDs, monthStart)
	if err != nil {
		return err
	}
	if used >= limit {
		return apperrors.New(apperrors.CodeAccountGenerationLimit,
			fmt.Sprintf("monthly generation allowance of %d posts used up", limit))
	}
	return nil
}

func (a *App) uniqueSlug(ctx context.Context, projectID, title string) (string, error) {
	var takenErr error
	slug := domain.UniqueSlug(domain.Slugify(title), func(candidate string) bool {
		taken, err := a.store.SlugTaken(ctx, projectID, candidate)
		if err != nil {
			takenErr = err
			return false
		}
		return taken
	})
	return slug, takenErr
}

type outlineOutput struct {
	Sections []struct {
		Title string `json:"title"`
	} `json:"sections"`
}

// Outline plans the post's sections and queues research for each middle one.
// A post that already has sections skips straight to queueing research, so a
// retried task never duplicates work.
func (a *App) Outline(ctx context.Context, postID string) error {
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	sections, err := a.store.ListSections(ctx, postID)
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		project, err := a.projects.GetProjectByID(ctx, post.ProjectID)
		if err != nil {
			return err
		}
		sections, err = a.planSections(ctx, project, post)
		if err != nil {
			return err
		}
		if err := a.store.CreateSections(ctx, postID, sections); err != nil {
			return err
		}
	}

	for _, section := range sections {
		if section.Kind != domain.SectionMiddle {
			continue
		}
		_, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
			Type:      TaskQuestions,
			Payload:   SectionPayload{SectionID: section.ID},
			DedupeKey: TaskQuestions + ":" + section.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) planSections(ctx context.Context, project projectdomain.Project, post domain.Post) ([]domain.Section, error) {
	def, err := agent.Lookup(agent.Outline)
	if err != nil {
		return nil, err
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Project: %s\n", project.Name)
	fmt.Fprintf(&prompt, "Summary: %s\n", project.Summary)
	fmt.Fprintf(&prompt, "Blog theme: %s\n", project.Analysis.BlogTheme)
	fmt.Fprintf(&prompt, "Target audience: %s\n", project.Analysis.TargetAudience)
	fmt.Fprintf(&prompt, "Language: %s\n", project.Analysis.Language)
	fmt.Fprintf(&prompt, "Post title: %s\n", post.Title)
	fmt.Fprintf(&prompt, "Meta description: %s\n", post.Description)
	result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
	if err != nil {
		return nil, fmt.Errorf("invoke outline: %w", err)
	}
	output, err := invoke.Decode[outlineOutput](result)
	if err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	if len(output.Sections) == 0 {
		return nil, apperrors.New(apperrors.CodeProviderBadOutput, "outline produced no sections")
	}

	now := a.now()
	sections := make([]domain.Section, 0, len(output.Sections)+2)
	add := func(kind domain.SectionKind, title string) error {
		sectionID, err := id.NewID()
		if err != nil {
			return err
		}
		sections = append(sections, domain.Section{
			ID:        sectionID,
			PostID:    post.ID,
			Position:  len(sections),
			Kind:      kind,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	}
	if err := add(domain.SectionIntroduction, "Introduction"); err != nil {
		return nil, err
	}
	for _, planned := range output.Sections {
		title := strings.TrimSpace(planned.Title)
		if title == "" {
			continue
		}
		if err := add(domain.SectionMiddle, title); err != nil {
			return nil, err
		}
	}
	if err := add(domain.SectionConclusion, "Conclusion"); err != nil {
		return nil, err
	}
	return sections, nil
}

type researchQuestionsOutput struct {
	Questions []string `json:"questions"`
}

// PlanQuestions derives a section's research questions and queues a web
// search for each. Question creation is a no-op when the section already has
// questions.
func (a *App) PlanQuestions(ctx context.Context, sectionID string) error {
	section, err := a.store.GetSection(ctx, sectionID)
	if err != nil {
		return err
	}
	questions, err := a.store.ListQuestions(ctx, sectionID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		post, err := a.store.GetPost(ctx, section.PostID)
		if err != nil {
			return err
		}
		def, err := agent.Lookup(agent.ResearchQuestions)
		if err != nil {
			return err
		}
		prompt := fmt.Sprintf("Post title: %s\nSection title: %s\n", post.Title, section.Title)
		result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt})
		if err != nil {
			return fmt.Errorf("invoke research questions: %w", err)
		}
		output, err := invoke.Decode[researchQuestionsOutput](result)
		if err != nil {
			return fmt.Errorf("decode research questions: %w", err)
		}
		now := a.now()
		for _, text := range output.Questions {
			text = truncate(strings.TrimSpace(text), maxQuestionChars)
			if text == "" {
				continue
			}
			questionID, err := id.NewID()
			if err != nil {
				return err
			}
			questions = append(questions, domain.ResearchQuestion{
				ID:        questionID,
				SectionID: sectionID,
				Text:      text,
				CreatedAt: now,
			})
		}
		if len(questions) == 0 {
			return apperrors.New(apperrors.CodeProviderBadOutput, "no research questions produced")
		}
		if err := a.store.CreateQuestions(ctx, sectionID, questions); err != nil {
			return err
		}
		questions, err = a.store.ListQuestions(ctx, sectionID)
		if err != nil {
			return err
		}
	}

	for _, question := range questions {
		_, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
			Type:      TaskSearch,
			Payload:   QuestionPayload{QuestionID: question.ID},
			DedupeKey: TaskSearch + ":" + question.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SearchQuestion runs the web search for one question and queues a scrape for
// each result. The question is marked searched even when nothing came back.
func (a *App) SearchQuestion(ctx context.Context, questionID string) error {
	question, err := a.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}

	if !question.Searched {
		now := a.now()
		results, err := a.searcher.Search(ctx, question.Text, search.Options{
			NumResults:     resultsPerQuestion,
			PublishedAfter: now.Add(-searchWindow),
		})
		if err != nil {
			return fmt.Errorf("search %q: %w", question.Text, err)
		}
		for _, found := range results {
			linkID, err := id.NewID()
			if err != nil {
				return err
			}
			_, err = a.store.UpsertLink(ctx, domain.ResearchLink{
				ID:          linkID,
				QuestionID:  questionID,
				URL:         found.URL,
				Title:       truncate(found.Title, maxLinkTitleChars),
				Author:      truncate(found.Author, maxAuthorChars),
				PublishedAt: found.PublishedAt,
				CreatedAt:   now,
			})
			if err != nil {
				return err
			}
		}
		if err := a.store.MarkQuestionSearched(ctx, questionID); err != nil {
			return err
		}
	}

	links, err := a.store.ListLinks(ctx, questionID)
	if err != nil {
		return err
	}
	for _, link := range links {
		_, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
			Type:      TaskScrape,
			Payload:   LinkPayload{LinkID: link.ID},
			DedupeKey: TaskScrape + ":" + link.ID,
		})
		if err != nil {
			return err
		}
	}
	return a.maybeSynthesize(ctx, question)
}

// ScrapeLink fetches one research source. A failed fetch marks the link
// analyzed with no content so the pipeline is never blocked on a dead page.
func (a *App) ScrapeLink(ctx context.Context, linkID string) error {
	link, err := a.store.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.Processed() {
		return nil
	}

	if link.ScrapedAt.IsZero() {
		page, err := a.reader.Fetch(ctx, link.URL)
		if err != nil {
			link.AnalyzedAt = a.now()
			if updateErr := a.store.UpdateLink(ctx, link); updateErr != nil {
				return updateErr
			}
			return a.afterLinkProcessed(ctx, link)
		}
		link.Content = page.Markdown
		if link.Title == "" {
			link.Title = truncate(page.Title, maxLinkTitleChars)
		}
		link.ScrapedAt = a.now()
		if err := a.store.UpdateLink(ctx, link); err != nil {
			return err
		}
	}

	_, err = a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskAnalyzeLink,
		Payload:   LinkPayload{LinkID: link.ID},
		DedupeKey: TaskAnalyzeLink + ":" + link.ID,
	})
	return err
}

type linkSummaryOutput struct {
	Summary           string `json:"summary"`
	ContextualSummary string `json:"contextual_summary"`
	AnswerSnippet     string `json:"answer_snippet"`
}

// AnalyzeLink summarizes one scraped source against its research question.
func (a *App) AnalyzeLink(ctx context.Context, linkID string) error {
	link, err := a.store.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.Processed() {
		return a.afterLinkProcessed(ctx, link)
	}

	if strings.TrimSpace(link.Content) != "" {
		question, err := a.store.GetQuestion(ctx, link.QuestionID)
		if err != nil {
			return err
		}
		section, err := a.store.GetSection(ctx, question.SectionID)
		if err != nil {
			return err
		}
		def, err := agent.Lookup(agent.LinkSummary)
		if err != nil {
			return err
		}
		var prompt strings.Builder
		fmt.Fprintf(&prompt, "Research question: %s\n", question.Text)
		fmt.Fprintf(&prompt, "Section title: %s\n", section.Title)
		fmt.Fprintf(&prompt, "Page URL: %s\n", link.URL)
		fmt.Fprintf(&prompt, "\nPage content:\n%s\n", truncate(link.Content, maxLinkContentChars))
		result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
		if err != nil {
			return fmt.Errorf("invoke link summary: %w", err)
		}
		output, err := invoke.Decode[linkSummaryOutput](result)
		if err != nil {
			return fmt.Errorf("decode link summary: %w", err)
		}
		link.Summary = output.Summary
		link.ContextualSummary = output.ContextualSummary
		link.AnswerSnippet = output.AnswerSnippet
	}

	link.AnalyzedAt = a.now()
	if err := a.store.UpdateLink(ctx, link); err != nil {
		return err
	}
	return a.afterLinkProcessed(ctx, link)
}

func (a *App) afterLinkProcessed(ctx context.Context, link domain.ResearchLink) error {
	question, err := a.store.GetQuestion(ctx, link.QuestionID)
	if err != nil {
		return err
	}
	return a.maybeSynthesize(ctx, question)
}

// maybeSynthesize queues synthesis once every question of the post has been
// searched and every found link analyzed.
func (a *App) maybeSynthesize(ctx context.Context, question domain.ResearchQuestion) error {
	section, err := a.store.GetSection(ctx, question.SectionID)
	if err != nil {
		return err
	}
	remaining, err := a.store.CountUnprocessedLinks(ctx, section.PostID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	_, err = a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskSynthesize,
		Payload:   PostPayload{PostID: section.PostID},
		DedupeKey: TaskSynthesize + ":" + section.PostID,
	})
	return err
}

type sectionSynthesisOutput struct {
	Content string `json:"content"`
}

// Synthesize writes every middle section that still lacks content, then
// queues finalization. A guard row keeps concurrent workers from writing the
// same post at once.
func (a *App) Synthesize(ctx context.Context, postID string) error {
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	holder, err := id.NewID()
	if err != nil {
		return err
	}
	now := a.now()
	guard := "synthesis:" + postID
	acquired, err := a.store.AcquireGuard(ctx, guard, holder, now.Add(synthesisGuardTTL), now)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() {
		_ = a.store.ReleaseGuard(ctx, guard, holder)
	}()

	sections, err := a.store.ListSections(ctx, postID)
	if err != nil {
		return err
	}
	var written []domain.Section
	for i, section := range sections {
		if section.Kind != domain.SectionMiddle {
			continue
		}
		if strings.TrimSpace(section.Content) != "" {
			written = append(written, section)
			continue
		}
		content, err := a.synthesizeSection(ctx, post, section, written)
		if err != nil {
			return err
		}
		section.Content = content
		section.UpdatedAt = a.now()
		if err := a.store.UpdateSection(ctx, section); err != nil {
			return err
		}
		sections[i] = section
		written = append(written, section)
	}

	_, err = a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskFinalize,
		Payload:   PostPayload{PostID: postID},
		DedupeKey: TaskFinalize + ":" + postID,
	})
	return err
}

func (a *App) synthesizeSection(ctx context.Context, post domain.Post, section domain.Section, prior []domain.Section) (string, error) {
	def, err := agent.Lookup(agent.SectionSynthesis)
	if err != nil {
		return "", err
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Post title: %s\n", post.Title)
	fmt.Fprintf(&prompt, "Section title: %s\n", section.Title)

	questions, err := a.store.ListQuestions(ctx, section.ID)
	if err != nil {
		return "", err
	}
	for _, question := range questions {
		fmt.Fprintf(&prompt, "\nResearch question: %s\n", question.Text)
		links, err := a.store.ListLinks(ctx, question.ID)
		if err != nil {
			return "", err
		}
		for _, link := range links {
			if strings.TrimSpace(link.ContextualSummary) == "" && strings.TrimSpace(link.AnswerSnippet) == "" {
				continue
			}
			fmt.Fprintf(&prompt, "Source: %s (%s)\n", link.Title, link.URL)
			if link.AnswerSnippet != "" {
				fmt.Fprintf(&prompt, "Answer: %s\n", link.AnswerSnippet)
			}
			if link.ContextualSummary != "" {
				fmt.Fprintf(&prompt, "Notes: %s\n", link.ContextualSummary)
			}
		}
	}

	if len(prior) > 0 {
		prompt.WriteString("\nSections already written:\n")
		for _, done := range prior {
			fmt.Fprintf(&prompt, "%s\n\n", done.Content)
		}
	}

	result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
	if err != nil {
		return "", fmt.Errorf("invoke section synthesis: %w", err)
	}
	output, err := invoke.Decode[sectionSynthesisOutput](result)
	if err != nil {
		return "", fmt.Errorf("decode section synthesis: %w", err)
	}
	if strings.TrimSpace(output.Content) == "" {
		return "", apperrors.New(apperrors.CodeProviderBadOutput, "section synthesis returned empty content")
	}
	return output.Content, nil
}

type introConclusionOutput struct {
	Introduction string `json:"introduction"`
	Conclusion   string `json:"conclusion"`
}

// Finalize writes the introduction and conclusion and assembles the full
// post content from its sections.
func (a *App) Finalize(ctx context.Context, postID string) error {
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.Generated() {
		return a.markGenerated(ctx, post.ProjectID)
	}
	sections, err := a.store.ListSections(ctx, postID)
	if err != nil {
		return err
	}

	needsEnds := false
	var middles []string
	for _, section := range sections {
		switch section.Kind {
		case domain.SectionMiddle:
			if strings.TrimSpace(section.Content) == "" {
				return apperrors.New(apperrors.CodePostNotReady,
					fmt.Sprintf("section %q has no content yet", section.Title))
			}
			middles = append(middles, section.Content)
		default:
			if strings.TrimSpace(section.Content) == "" {
				needsEnds = true
			}
		}
	}

	if needsEnds {
		def, err := agent.Lookup(agent.IntroConclusion)
		if err != nil {
			return err
		}
		var prompt strings.Builder
		fmt.Fprintf(&prompt, "Post title: %s\n", post.Title)
		fmt.Fprintf(&prompt, "Meta description: %s\n\n", post.Description)
		prompt.WriteString("Middle sections:\n\n")
		prompt.WriteString(strings.Join(middles, "\n\n"))
		result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
		if err != nil {
			return fmt.Errorf("invoke intro and conclusion: %w", err)
		}
		output, err := invoke.Decode[introConclusionOutput](result)
		if err != nil {
			return fmt.Errorf("decode intro and conclusion: %w", err)
		}
		if strings.TrimSpace(output.Introduction) == "" || strings.TrimSpace(output.Conclusion) == "" {
			return apperrors.New(apperrors.CodeProviderBadOutput, "intro and conclusion returned empty content")
		}
		for i, section := range sections {
			var content string
			switch section.Kind {
			case domain.SectionIntroduction:
				content = output.Introduction
			case domain.SectionConclusion:
				content = output.Conclusion
			default:
				continue
			}
			if strings.TrimSpace(section.Content) != "" {
				continue
			}
			section.Content = content
			section.UpdatedAt = a.now()
			if err := a.store.UpdateSection(ctx, section); err != nil {
				return err
			}
			sections[i] = section
		}
	}

	post.Content = domain.AssemblePost(post.Title, sections)
	post.UpdatedAt = a.now()
	if err := a.store.UpdatePost(ctx, post); err != nil {
		return err
	}
	return a.markGenerated(ctx, post.ProjectID)
}

// markGenerated advances the owning account to the generated-content
// lifecycle state. Accounts already past it are left alone.
func (a *App) markGenerated(ctx context.Context, projectID string) error {
	project, err := a.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	return a.plans.MarkGenerated(ctx, project.AccountID)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
