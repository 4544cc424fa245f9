package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"flashdeck/internal/archive"
	"flashdeck/internal/auth"
	"flashdeck/internal/config"
	"flashdeck/internal/deck"
	"flashdeck/internal/encryption"
	"flashdeck/internal/store"
)

// Options tune how a FlashdeckApp is built. The zero value is the CLI default.
type Options struct {
	Stderr  io.Writer // defaults to os.Stderr
	Verbose bool      // echo info and debug lines to Stderr
	Clock   deck.Clock
	IDGen   deck.IDGenerator
}

// FlashdeckApp is the application layer between the CLI and DeckService.
// It constructs all dependencies from config, resolves the acting principal,
// validates raw input and closes the store on Close.
type FlashdeckApp struct {
	cfg       *config.Config
	store     deck.Store
	service   *deck.DeckService
	archiver  *archive.Archiver
	encryptor archive.Encryptor
	authority *auth.TokenAuthority
	validator *Validator
	principal deck.Principal
	clock     deck.Clock
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// NewFlashdeckApp creates a fully wired FlashdeckApp from the given config.
// command names the CLI command being run and tags its log lines.
// The caller must call Close when done.
func NewFlashdeckApp(ctx context.Context, cfg *config.Config, command string, opts Options) (*FlashdeckApp, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = deck.RealClock{}
	}
	stderrLevel := slog.LevelWarn
	if opts.Verbose {
		stderrLevel = slog.LevelDebug
	}

	op := NewOperation(command, opts.Clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, opts.Stderr, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &FlashdeckApp{
		cfg:       cfg,
		validator: NewValidator(),
		clock:     opts.Clock,
		logger:    logger,
		op:        op,
		logFile:   logFile,
	}
	if err := a.wire(ctx, opts); err != nil {
		a.closeResources()
		return nil, err
	}

	logger.Debug("operation started", "command", command, "store", cfg.Store.Type, "mode", a.service.Mode().String(), "principal", a.principal.String())
	return a, nil
}

func (a *FlashdeckApp) wire(ctx context.Context, opts Options) error {
	mode, err := parseMode(a.cfg.Store.ResolvedMode())
	if err != nil {
		return err
	}

	s, err := store.NewStoreFromConfig(ctx, a.cfg.Store, a.cfg.AWS, a.clock.Now())
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	a.store = s
	a.service = deck.NewDeckService(s, mode, &slogAdapter{l: a.logger}, a.clock, opts.IDGen)

	vault, err := archive.NewVaultFromConfig(ctx, a.cfg.Archive, a.cfg.AWS)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc
	a.archiver = archive.NewArchiver(vault, enc)

	authority, err := auth.NewTokenAuthorityFromConfig(a.cfg.Auth, os.Getenv(EnvAuthSecret), a.clock)
	switch {
	case errors.Is(err, auth.ErrNoSecret):
		a.logger.Debug("no auth secret configured, tokens disabled")
	case err != nil:
		return fmt.Errorf("creating token authority: %w", err)
	default:
		a.authority = authority
	}

	a.principal = a.resolvePrincipal()
	return nil
}

// resolvePrincipal reads the token from FLASHDECK_TOKEN or the token file.
// A missing or rejected token leaves the caller anonymous.
func (a *FlashdeckApp) resolvePrincipal() deck.Principal {
	token := os.Getenv(EnvToken)
	if token == "" {
		saved, err := auth.LoadToken(a.cfg.Auth.TokenPath)
		if err != nil {
			a.logger.Warn("could not read saved token", "error", err)
			return deck.Anonymous
		}
		token = saved
	}
	if token == "" {
		return deck.Anonymous
	}
	if a.authority == nil {
		a.logger.Warn("token present but no auth secret configured, continuing anonymously")
		return deck.Anonymous
	}

	p, err := a.authority.Verify(token)
	if err != nil {
		a.logger.Warn("token rejected, continuing anonymously", "error", err)
		return deck.Anonymous
	}
	return p
}

func parseMode(s string) (deck.Mode, error) {
	switch s {
	case "local":
		return deck.ModeLocal, nil
	case "remote":
		return deck.ModeRemote, nil
	default:
		return 0, fmt.Errorf("unknown store mode %q", s)
	}
}

// Service exposes the underlying DeckService.
func (a *FlashdeckApp) Service() *deck.DeckService {
	return a.service
}

// Principal returns the acting principal.
func (a *FlashdeckApp) Principal() deck.Principal {
	return a.principal
}

// ListDecks lists the children of parentID, or the roots when it is empty.
func (a *FlashdeckApp) ListDecks(ctx context.Context, parentID string) ([]*deck.Deck, error) {
	return a.service.ListChildren(ctx, a.principal, parentID)
}

// ShowDeck returns a deck with its breadcrumb.
func (a *FlashdeckApp) ShowDeck(ctx context.Context, id string) (*deck.Deck, []deck.PathEntry, error) {
	d, err := a.service.GetDeck(ctx, a.principal, id)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, fmt.Errorf("deck %s: %w", id, deck.ErrNotFound)
	}
	path, err := a.service.GetPath(ctx, a.principal, id)
	if err != nil {
		return nil, nil, err
	}
	return d, path, nil
}

// DeckPath returns the breadcrumb for id.
func (a *FlashdeckApp) DeckPath(ctx context.Context, id string) ([]deck.PathEntry, error) {
	return a.service.GetPath(ctx, a.principal, id)
}

// CreateDeck validates the form and creates a deck under parentID.
func (a *FlashdeckApp) CreateDeck(ctx context.Context, form DeckForm, parentID string) (*deck.Deck, error) {
	in, err := a.validator.DeckInput(form)
	if err != nil {
		return nil, err
	}
	return a.service.CreateDeck(ctx, a.principal, in, parentID)
}

// UpdateDeck validates the form and applies it as a partial update.
func (a *FlashdeckApp) UpdateDeck(ctx context.Context, id string, form DeckUpdateForm) (*deck.Deck, error) {
	patch, err := a.validator.DeckPatch(form)
	if err != nil {
		return nil, err
	}
	return a.service.UpdateDeck(ctx, a.principal, id, patch)
}

// DeleteDeck removes a deck and everything beneath it.
func (a *FlashdeckApp) DeleteDeck(ctx context.Context, id string) error {
	return a.service.DeleteDeck(ctx, a.principal, id)
}

// CountChildren counts the direct children of parentID.
func (a *FlashdeckApp) CountChildren(ctx context.Context, parentID string) (int, error) {
	return a.service.CountChildren(ctx, a.principal, parentID)
}

// AddCard validates the form and appends a card to the deck.
func (a *FlashdeckApp) AddCard(ctx context.Context, deckID string, form CardForm) (*deck.Deck, error) {
	in, err := a.validator.CardInput(form)
	if err != nil {
		return nil, err
	}
	return a.service.AddCardToDeck(ctx, a.principal, deckID, in)
}

// UpdateCard validates the form and replaces a card's text.
func (a *FlashdeckApp) UpdateCard(ctx context.Context, deckID, cardID string, form CardForm) (*deck.Deck, error) {
	in, err := a.validator.CardInput(form)
	if err != nil {
		return nil, err
	}
	return a.service.UpdateCardInDeck(ctx, a.principal, deckID, cardID, in)
}

// DeleteCard removes a card from the deck.
func (a *FlashdeckApp) DeleteCard(ctx context.Context, deckID, cardID string) (*deck.Deck, error) {
	return a.service.DeleteCardFromDeck(ctx, a.principal, deckID, cardID)
}

// StartStudy opens a study session on the deck.
func (a *FlashdeckApp) StartStudy(ctx context.Context, deckID string) (*deck.StudySession, error) {
	return a.service.StartStudy(ctx, a.principal, deckID)
}

// Login issues a token for userID, saves it to the token file and makes
// userID the acting principal.
func (a *FlashdeckApp) Login(userID string) (deck.Principal, error) {
	if a.authority == nil {
		return deck.Anonymous, fmt.Errorf("logging in: %w", auth.ErrNoSecret)
	}
	token, err := a.authority.Issue(userID)
	if err != nil {
		return deck.Anonymous, err
	}
	if err := auth.SaveToken(a.cfg.Auth.TokenPath, token); err != nil {
		return deck.Anonymous, err
	}
	a.principal = deck.NewPrincipal(userID)
	a.logger.Info("logged in", "principal", userID)
	return a.principal, nil
}

// Logout forgets the saved token.
func (a *FlashdeckApp) Logout() error {
	if err := auth.ClearToken(a.cfg.Auth.TokenPath); err != nil {
		return err
	}
	a.logger.Info("logged out", "principal", a.principal.String())
	a.principal = deck.Anonymous
	return nil
}

// InitKeys generates the archive encryption keys, protected by passphrase.
func (a *FlashdeckApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	a.logger.Info("encryption keys created")
	return nil
}

// Export snapshots the principal's library into the archive under name.
// It returns the stored object name and the snapshot.
func (a *FlashdeckApp) Export(ctx context.Context, name string, encrypt bool) (string, *archive.Snapshot, error) {
	decks, err := a.service.Export(ctx, a.principal)
	if err != nil {
		return "", nil, err
	}
	snap := archive.NewSnapshot(decks, a.principal.UserID, a.clock.Now())
	object, err := a.archiver.Save(ctx, name, snap, encrypt)
	if err != nil {
		return "", nil, fmt.Errorf("saving snapshot: %w", err)
	}
	a.logger.Info("library exported", "object", object, "decks", len(snap.Decks), "cards", snap.CardCount())
	return object, snap, nil
}

// Restore imports the snapshot saved under name. passphrase is only called
// when the snapshot is encrypted.
func (a *FlashdeckApp) Restore(ctx context.Context, name string, passphrase func() (string, error)) (int, error) {
	snap, err := a.archiver.Load(ctx, name, passphrase)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}
	n, err := a.service.Import(ctx, a.principal, snap.Decks)
	if err != nil {
		return 0, err
	}
	a.logger.Info("library restored", "snapshot", name, "decks", n)
	return n, nil
}

// ListSnapshots lists the archive's snapshot objects.
func (a *FlashdeckApp) ListSnapshots(ctx context.Context) ([]string, error) {
	return a.archiver.List(ctx)
}

// MigrateFrom copies the local blob library at path into the configured store.
func (a *FlashdeckApp) MigrateFrom(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("opening local library: %w", err)
	}
	source, err := store.NewBlobStore(path, false, a.clock.Now())
	if err != nil {
		return 0, err
	}
	defer source.Close()

	n, err := a.service.MigrateFrom(ctx, a.principal, source)
	if err != nil {
		return 0, err
	}
	a.logger.Info("local library migrated", "source", path, "decks", n)
	return n, nil
}

// Fail marks the running operation as failed; Close logs the outcome.
func (a *FlashdeckApp) Fail() {
	a.op.Fail()
}

// Close logs the operation outcome and releases the store and log file.
func (a *FlashdeckApp) Close() error {
	a.logger.Debug("operation finished", "command", a.op.Command, "status", a.op.Status, "elapsed", a.op.Elapsed(a.clock.Now()))
	return a.closeResources()
}

func (a *FlashdeckApp) closeResources() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
