// Package repotest holds the behaviour every ports.QuestionRepository
// implementation must share. Storage adapters run it from their own tests.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

// Factory returns an empty repository for a single subtest.
type Factory func(t *testing.T) ports.QuestionRepository

var base = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func Run(t *testing.T, newRepo Factory) {
	t.Run("ListRecentEmpty", func(t *testing.T) { testListRecentEmpty(t, newRepo(t)) })
	t.Run("ListRecentPaging", func(t *testing.T) { testListRecentPaging(t, newRepo(t)) })
	t.Run("GetQuestion", func(t *testing.T) { testGetQuestion(t, newRepo(t)) })
	t.Run("GetChoiceScopedToQuestion", func(t *testing.T) { testGetChoiceScoped(t, newRepo(t)) })
	t.Run("AdjacentQuestions", func(t *testing.T) { testAdjacent(t, newRepo(t)) })
	t.Run("AdjacentTieBreak", func(t *testing.T) { testAdjacentTieBreak(t, newRepo(t)) })
	t.Run("IncrementVotes", func(t *testing.T) { testIncrementVotes(t, newRepo(t)) })
	t.Run("ConcurrentIncrements", func(t *testing.T) { testConcurrentIncrements(t, newRepo(t)) })
	t.Run("AddChoice", func(t *testing.T) { testAddChoice(t, newRepo(t)) })
	t.Run("DeleteQuestionCascades", func(t *testing.T) { testDeleteCascades(t, newRepo(t)) })
}

// Now returns the fixed instant the suite seeds questions around.
func Now() time.Time {
	return base
}

// Seed stores a question published at publishedAt with the given choices.
func Seed(t *testing.T, repo ports.QuestionRepository, text string, publishedAt time.Time, choices ...string) (*domain.Question, []domain.Choice) {
	t.Helper()

	q := &domain.Question{ID: uuid.New(), Text: text, PublishedAt: publishedAt.UTC()}
	var cs []domain.Choice
	for i, c := range choices {
		cs = append(cs, domain.Choice{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       c,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, repo.SaveQuestion(context.Background(), q, cs))
	return q, cs
}

func testListRecentEmpty(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()

	questions, err := repo.ListRecent(ctx, domain.PageSize, 0)
	require.NoError(t, err)
	assert.NotNil(t, questions)
	assert.Empty(t, questions)

	count, err := repo.CountQuestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testListRecentPaging(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()

	var seeded []*domain.Question
	for i := 0; i < 6; i++ {
		q, _ := Seed(t, repo, "Question", base.Add(time.Duration(i)*time.Hour))
		seeded = append(seeded, q)
	}

	first, err := repo.ListRecent(ctx, domain.PageSize, 0)
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, seeded[5].ID, first[0].ID, "newest question first")
	assert.Equal(t, seeded[1].ID, first[4].ID)

	second, err := repo.ListRecent(ctx, domain.PageSize, 5)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, seeded[0].ID, second[0].ID)

	count, err := repo.CountQuestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func testGetQuestion(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q, _ := Seed(t, repo, "What's new?", base)

	got, err := repo.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
	assert.Equal(t, "What's new?", got.Text)
	assert.True(t, q.PublishedAt.Equal(got.PublishedAt))

	_, err = repo.GetQuestion(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func testGetChoiceScoped(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q1, c1 := Seed(t, repo, "First", base, "Red", "Blue")
	q2, c2 := Seed(t, repo, "Second", base.Add(time.Hour), "Yes")

	got, err := repo.GetChoice(ctx, q1.ID, c1[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue", got.Text)
	assert.Equal(t, int64(0), got.Votes)

	_, err = repo.GetChoice(ctx, q1.ID, c2[0].ID)
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	_, err = repo.GetChoice(ctx, q2.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	choices, err := repo.ListChoices(ctx, q1.ID)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Red", choices[0].Text)
	assert.Equal(t, "Blue", choices[1].Text)

	none, err := repo.ListChoices(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testAdjacent(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	a, _ := Seed(t, repo, "A", base)
	b, _ := Seed(t, repo, "B", base.Add(time.Hour))
	c, _ := Seed(t, repo, "C", base.Add(2*time.Hour))

	prev, err := repo.PreviousQuestion(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, a.ID, prev.ID)

	next, err := repo.NextQuestion(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, c.ID, next.ID)

	none, err := repo.PreviousQuestion(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, none)

	none, err = repo.NextQuestion(ctx, c)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testAdjacentTieBreak(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	ref, _ := Seed(t, repo, "Reference", base.Add(time.Hour))
	x, _ := Seed(t, repo, "Tied X", base)
	y, _ := Seed(t, repo, "Tied Y", base)
	z, _ := Seed(t, repo, "Tied Z", base.Add(2*time.Hour))
	w, _ := Seed(t, repo, "Tied W", base.Add(2*time.Hour))

	// Earlier ties resolve to the greatest id, later ties to the smallest.
	wantPrev := x
	if y.ID.String() > x.ID.String() {
		wantPrev = y
	}
	wantNext := z
	if w.ID.String() < z.ID.String() {
		wantNext = w
	}

	for i := 0; i < 3; i++ {
		prev, err := repo.PreviousQuestion(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, wantPrev.ID, prev.ID)

		next, err := repo.NextQuestion(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, wantNext.ID, next.ID)
	}
}

func testIncrementVotes(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q1, c1 := Seed(t, repo, "First", base, "Red", "Blue")
	_, c2 := Seed(t, repo, "Second", base.Add(time.Hour), "Yes")

	votes, err := repo.IncrementVotes(ctx, q1.ID, c1[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), votes)

	votes, err = repo.IncrementVotes(ctx, q1.ID, c1[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), votes)

	_, err = repo.IncrementVotes(ctx, q1.ID, c2[0].ID)
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	_, err = repo.IncrementVotes(ctx, q1.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	choices, err := repo.ListChoices(ctx, q1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), choices[0].Votes)
	assert.Equal(t, int64(0), choices[1].Votes)

	other, err := repo.GetChoice(ctx, c2[0].QuestionID, c2[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Votes)
}

func testConcurrentIncrements(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q, cs := Seed(t, repo, "Race", base, "Only")

	const voters = 25
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementVotes(ctx, q.ID, cs[0].ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetChoice(ctx, q.ID, cs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), got.Votes)
}

func testAddChoice(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q, _ := Seed(t, repo, "Grow", base, "One")

	added := &domain.Choice{ID: uuid.New(), QuestionID: q.ID, Text: "Two", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.AddChoice(ctx, added))

	choices, err := repo.ListChoices(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Two", choices[1].Text)
}

func testDeleteCascades(t *testing.T, repo ports.QuestionRepository) {
	ctx := context.Background()
	q, cs := Seed(t, repo, "Doomed", base, "a", "b")

	require.NoError(t, repo.DeleteQuestion(ctx, q.ID))

	_, err := repo.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, err = repo.GetChoice(ctx, q.ID, cs[0].ID)
	assert.ErrorIs(t, err, domain.ErrChoiceNotFound)

	err = repo.DeleteQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}
