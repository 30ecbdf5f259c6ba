package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/polls/internal/adapters/repository/repotest"
	"github.com/vncsmyrnk/polls/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/polls/internal/core/domain"
	"github.com/vncsmyrnk/polls/internal/core/ports"
)

func newRepo(t *testing.T) ports.QuestionRepository {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewQuestionRepository(db)
}

type recorder struct {
	mu       sync.Mutex
	accepted int
	rejected []string
}

func (r *recorder) VoteAccepted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted++
}

func (r *recorder) VoteRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

type publisher struct {
	mu     sync.Mutex
	events []domain.VoteCast
	err    error
}

func (p *publisher) Publish(_ context.Context, event domain.VoteCast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *publisher) Close() error { return nil }

func TestListQuestions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewQuestionService(repo)

	t.Run("first page of an empty store", func(t *testing.T) {
		page, err := svc.ListQuestions(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Questions)
		assert.Equal(t, 1, page.TotalPages())
		assert.False(t, page.HasNext())
	})

	var seeded []*domain.Question
	for i := 0; i < 7; i++ {
		q, _ := repotest.Seed(t, repo, "Question", repotest.Now().Add(time.Duration(i)*time.Minute))
		seeded = append(seeded, q)
	}

	t.Run("newest first", func(t *testing.T) {
		page, err := svc.ListQuestions(ctx, 1)
		require.NoError(t, err)
		require.Len(t, page.Questions, domain.PageSize)
		assert.Equal(t, seeded[6].ID, page.Questions[0].ID)
		assert.Equal(t, seeded[2].ID, page.Questions[4].ID)
		assert.True(t, page.HasNext())
		assert.Equal(t, 7, page.TotalCount)
	})

	t.Run("last page", func(t *testing.T) {
		page, err := svc.ListQuestions(ctx, 2)
		require.NoError(t, err)
		require.Len(t, page.Questions, 2)
		assert.Equal(t, seeded[0].ID, page.Questions[1].ID)
		assert.True(t, page.HasPrevious())
		assert.False(t, page.HasNext())
	})

	for _, n := range []int{0, -1, 3} {
		_, err := svc.ListQuestions(ctx, n)
		assert.ErrorIs(t, err, domain.ErrPageNotFound, "page %d", n)
	}
}

func TestGetQuestion(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewQuestionService(repo)
	q, _ := repotest.Seed(t, repo, "What's up?", repotest.Now(), "Not much", "The sky")

	question, choices, err := svc.GetQuestion(ctx, q.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "What's up?", question.Text)
	require.Len(t, choices, 2)
	assert.Equal(t, "Not much", choices[0].Text)

	_, _, err = svc.GetQuestion(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, _, err = svc.GetQuestion(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestResultsIncludesNeighbours(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewQuestionService(repo)

	first, _ := repotest.Seed(t, repo, "First", repotest.Now().Add(-2*time.Hour))
	middle, _ := repotest.Seed(t, repo, "Middle", repotest.Now().Add(-time.Hour), "a", "b")
	last, _ := repotest.Seed(t, repo, "Last", repotest.Now())

	results, err := svc.Results(ctx, middle.ID.String())
	require.NoError(t, err)
	require.NotNil(t, results.Previous)
	require.NotNil(t, results.Next)
	assert.Equal(t, first.ID, results.Previous.ID)
	assert.Equal(t, last.ID, results.Next.ID)
	assert.Len(t, results.Choices, 2)

	results, err = svc.Results(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Nil(t, results.Previous)

	results, err = svc.Results(ctx, last.ID.String())
	require.NoError(t, err)
	assert.Nil(t, results.Next)
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	q, choices := repotest.Seed(t, repo, "Tabs or spaces?", repotest.Now(), "Tabs", "Spaces")
	other, otherChoices := repotest.Seed(t, repo, "Vim or Emacs?", repotest.Now(), "Vim")

	rec := &recorder{}
	pub := &publisher{}
	svc := NewVoteService(repo, rec, nil, pub)
	castAt := repotest.Now().Add(time.Minute)
	svc.(*voteService).now = func() time.Time { return castAt }

	t.Run("counts every submission", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			event, err := svc.CastVote(ctx, ports.VoteInput{QuestionID: q.ID.String(), ChoiceID: choices[0].ID.String()})
			require.NoError(t, err)
			assert.Equal(t, want, event.Votes)
			assert.Equal(t, castAt, event.CastAt)
		}

		stored, err := repo.GetChoice(ctx, q.ID, choices[0].ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, stored.Votes)
		assert.Len(t, pub.events, 3)
		assert.Equal(t, 3, rec.accepted)
	})

	t.Run("rejects invalid choices without counting", func(t *testing.T) {
		for _, choiceID := range []string{"", "garbage", uuid.NewString(), otherChoices[0].ID.String()} {
			_, err := svc.CastVote(ctx, ports.VoteInput{QuestionID: q.ID.String(), ChoiceID: choiceID})
			assert.ErrorIs(t, err, domain.ErrInvalidChoice, "choice %q", choiceID)
		}

		stored, err := repo.GetChoice(ctx, other.ID, otherChoices[0].ID)
		require.NoError(t, err)
		assert.Zero(t, stored.Votes)
		assert.Equal(t, []string{"invalid_choice", "invalid_choice", "invalid_choice", "invalid_choice"}, rec.rejected)
	})

	t.Run("unknown question", func(t *testing.T) {
		_, err := svc.CastVote(ctx, ports.VoteInput{QuestionID: uuid.NewString(), ChoiceID: choices[0].ID.String()})
		assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
	})
}

func TestCastVoteSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	q, choices := repotest.Seed(t, repo, "Still counted?", repotest.Now(), "Yes")

	failing := &publisher{err: errors.New("broker down")}
	healthy := &publisher{}
	svc := NewVoteService(repo, nil, nil, failing, healthy)

	event, err := svc.CastVote(ctx, ports.VoteInput{QuestionID: q.ID.String(), ChoiceID: choices[0].ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, event.Votes)
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestConcurrentVotesAreNotLost(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	q, choices := repotest.Seed(t, repo, "Race?", repotest.Now(), "Yes")
	svc := NewVoteService(repo, nil, nil)

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(ctx, ports.VoteInput{QuestionID: q.ID.String(), ChoiceID: choices[0].ID.String()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetChoice(ctx, q.ID, choices[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, voters, stored.Votes)
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewAdminService(repo)
	svc.(*adminService).now = repotest.Now

	t.Run("create trims and skips blank choices", func(t *testing.T) {
		q, choices, err := svc.CreateQuestion(ctx, ports.CreateQuestionInput{
			Text:    "  Favourite colour?  ",
			Choices: []string{"Red", "  ", "Blue "},
		})
		require.NoError(t, err)
		assert.Equal(t, "Favourite colour?", q.Text)
		assert.Equal(t, repotest.Now(), q.PublishedAt)
		require.Len(t, choices, 2)

		stored, err := repo.ListChoices(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "Red", stored[0].Text)
		assert.Equal(t, "Blue", stored[1].Text)
	})

	t.Run("create requires text", func(t *testing.T) {
		_, _, err := svc.CreateQuestion(ctx, ports.CreateQuestionInput{Text: " "})
		assert.ErrorIs(t, err, domain.ErrEmptyText)
	})

	t.Run("future publication date", func(t *testing.T) {
		later := repotest.Now().Add(48 * time.Hour)
		q, _, err := svc.CreateQuestion(ctx, ports.CreateQuestionInput{Text: "Tomorrow?", PublishedAt: &later})
		require.NoError(t, err)
		assert.Equal(t, later, q.PublishedAt)
		assert.False(t, q.WasPublishedRecently(repotest.Now()))
	})

	t.Run("add choice and delete", func(t *testing.T) {
		q, _, err := svc.CreateQuestion(ctx, ports.CreateQuestionInput{Text: "Soon gone"})
		require.NoError(t, err)

		choice, err := svc.AddChoice(ctx, q.ID.String(), "Late entry")
		require.NoError(t, err)
		assert.Equal(t, q.ID, choice.QuestionID)

		_, err = svc.AddChoice(ctx, q.ID.String(), "")
		assert.ErrorIs(t, err, domain.ErrEmptyText)
		_, err = svc.AddChoice(ctx, uuid.NewString(), "Orphan")
		assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

		require.NoError(t, svc.DeleteQuestion(ctx, q.ID.String()))
		assert.ErrorIs(t, svc.DeleteQuestion(ctx, q.ID.String()), domain.ErrQuestionNotFound)
		assert.ErrorIs(t, svc.DeleteQuestion(ctx, "nope"), domain.ErrQuestionNotFound)
	})
}

func TestReportKeepsListOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	for i := 0; i < 12; i++ {
		repotest.Seed(t, repo, "Question", repotest.Now().Add(time.Duration(i)*time.Minute), "a", "b")
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)

	reports, err := NewAdminService(repo).Report(ctx)
	require.NoError(t, err)
	require.Len(t, reports, len(all))
	for i, r := range reports {
		assert.Equal(t, all[i].ID, r.Question.ID)
		assert.Len(t, r.Choices, 2)
	}
}
