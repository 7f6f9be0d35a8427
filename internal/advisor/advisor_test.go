package advisor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/advisor"
	"github.com/nativeways/pathways/internal/listing"
	"github.com/nativeways/pathways/internal/llm"
	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/internal/testutil"
	"github.com/nativeways/pathways/pkg/models"
)

// fakeProvider scripts the two pipeline calls: Chat returns the canned intent
// JSON, Generate returns the canned answer.
type fakeProvider struct {
	intentJSON string
	chatErr    error

	answer      string
	generateErr error

	chatOpts     llm.CallOptions
	generateOpts llm.CallOptions
	lastPrompt   string
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, opts ...llm.CallOption) (*llm.Response, error) {
	f.chatOpts = llm.ApplyOptions(opts...)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &llm.Response{Content: f.intentJSON, Model: "test-model"}, nil
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, opts ...llm.CallOption) (*llm.Response, error) {
	f.generateOpts = llm.ApplyOptions(opts...)
	f.lastPrompt = prompt
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &llm.Response{Content: f.answer, Model: "test-model"}, nil
}

func newAdvisor(t *testing.T, provider llm.Provider) (*advisor.Advisor, services.ListingRepository) {
	t.Helper()
	db := testutil.NewStore(t)
	repo := services.NewSQLiteListingRepository(db.DB())
	logger := zap.NewNop()
	engine := listing.NewEngine(repo, logger)
	resolver := listing.NewResolver(repo, logger)
	return advisor.New(provider, engine, resolver, 20, logger), repo
}

func TestAskFilterIntent(t *testing.T) {
	provider := &fakeProvider{
		intentJSON: `{"kind":"scholarship","type":"undergraduate","deadline":"rolling"}`,
		answer:     "The Eagle Staff Scholarship accepts applications year-round.",
	}
	a, repo := newAdvisor(t, provider)
	ctx := context.Background()

	match := testutil.NewListing(
		testutil.WithKind(models.KindScholarship),
		testutil.WithCategory(models.CategoryUndergraduate),
		testutil.WithTitle("Eagle Staff Scholarship"),
		testutil.WithRolling(),
	)
	other := testutil.NewListing(testutil.WithTitle("Unrelated Grant"), testutil.WithRolling())
	for _, l := range []*models.Listing{&match, &other} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	reply, err := a.Ask(ctx, "undergrad scholarships with no deadline?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(reply.Listings) != 1 || reply.Listings[0].Title != "Eagle Staff Scholarship" {
		t.Errorf("Listings = %+v, want the matching scholarship only", reply.Listings)
	}
	if reply.Answer != provider.answer {
		t.Errorf("Answer = %q", reply.Answer)
	}
	if reply.Model != "test-model" {
		t.Errorf("Model = %q", reply.Model)
	}
	if !strings.Contains(provider.lastPrompt, "Eagle Staff Scholarship") {
		t.Error("formatter prompt should carry the matched listings")
	}

	// The parse phase runs cold, the formatting phase does not.
	if provider.chatOpts.Temperature != 0.1 {
		t.Errorf("intent temperature = %v, want 0.1", provider.chatOpts.Temperature)
	}
	if provider.generateOpts.Temperature != 0.7 {
		t.Errorf("formatter temperature = %v, want 0.7", provider.generateOpts.Temperature)
	}
}

func TestAskSearchIntent(t *testing.T) {
	provider := &fakeProvider{
		intentJSON: `{"kind":"grant","query":"buffalo restoration"}`,
		answer:     "One match.",
	}
	a, repo := newAdvisor(t, provider)
	ctx := context.Background()

	l := testutil.NewListing(
		testutil.WithTitle("Buffalo Restoration Initiative"),
		testutil.WithRolling(),
	)
	if err := repo.Create(ctx, &l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reply, err := a.Ask(ctx, "anything about buffalo restoration?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(reply.Listings) != 1 || reply.Listings[0].Title != "Buffalo Restoration Initiative" {
		t.Errorf("Listings = %+v, want the searched listing", reply.Listings)
	}
}

func TestAskToleratesSloppyIntent(t *testing.T) {
	// Unknown kind, malformed amount and deadline: intent execution degrades
	// the same way a malformed public query string does.
	provider := &fakeProvider{
		intentJSON: `{"kind":"fellowship","amount":"lots","deadline":"someday"}`,
		answer:     "Here is what I found.",
	}
	a, repo := newAdvisor(t, provider)
	ctx := context.Background()

	l := testutil.NewListing(testutil.WithTitle("Default Grant"), testutil.WithRolling())
	if err := repo.Create(ctx, &l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reply, err := a.Ask(ctx, "help?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(reply.Listings) != 1 {
		t.Errorf("sloppy intent should fall back to the default grant page, got %d listings", len(reply.Listings))
	}
}

func TestAskSurfacesProviderErrors(t *testing.T) {
	a, _ := newAdvisor(t, &fakeProvider{chatErr: errors.New("model offline")})
	if _, err := a.Ask(context.Background(), "hello"); err == nil {
		t.Error("Chat failure should surface")
	}

	a, _ = newAdvisor(t, &fakeProvider{intentJSON: "I cannot parse that, sorry!"})
	if _, err := a.Ask(context.Background(), "hello"); err == nil {
		t.Error("non-JSON intent should surface as an error")
	}

	a, _ = newAdvisor(t, &fakeProvider{intentJSON: `{"kind":"grant"}`, generateErr: errors.New("model offline")})
	if _, err := a.Ask(context.Background(), "hello"); err == nil {
		t.Error("Generate failure should surface")
	}
}
