// Package routing scores free-text requests against registered domain
// profiles using a weighted blend of keyword matching and TF-IDF cosine
// similarity.
package routing

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/domains"
)

// Blend weights: keyword evidence dominates the statistical signal.
// They sum to 1 so final scores stay in [0,1].
const (
	keywordWeight = 0.6
	tfidfWeight   = 0.4
)

// Score is the relevance breakdown for one domain against one request.
type Score struct {
	Final           float64
	Keyword         float64
	TFIDF           float64
	MatchedKeywords []string
}

// model is one immutable trained snapshot. Train builds a whole new model
// and swaps it in, so readers never observe a partially trained state.
type model struct {
	vectorizer *vectorizer
	profiles   map[string]sparseVec
	keywords   map[string]*keywordSet
}

// Engine scores request text against trained domain profiles.
// An engine with no trained model scores nothing; call Train first.
type Engine struct {
	mu     sync.RWMutex
	model  *model
	logger *zap.SugaredLogger
}

// NewEngine returns an untrained engine. A nil logger is replaced with a nop.
func NewEngine(logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{logger: logger}
}

// Train rebuilds the relevance model from the full domain set. The new
// model is constructed off-lock and swapped in atomically; training with
// an empty set clears the model.
func (e *Engine) Train(infos map[string]domains.DomainInfo) {
	if len(infos) == 0 {
		e.mu.Lock()
		e.model = nil
		e.mu.Unlock()
		e.logger.Debugw("Routing model cleared")
		return
	}

	ids := make([]string, 0, len(infos))
	for id := range infos {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]string, len(ids))
	for i, id := range ids {
		docs[i] = profileText(infos[id])
	}

	m := &model{
		vectorizer: fitVectorizer(docs),
		profiles:   make(map[string]sparseVec, len(ids)),
		keywords:   make(map[string]*keywordSet, len(ids)),
	}
	for i, id := range ids {
		m.profiles[id] = m.vectorizer.transform(docs[i])
		m.keywords[id] = newKeywordSet(infos[id])
	}

	e.mu.Lock()
	e.model = m
	e.mu.Unlock()

	e.logger.Infow("Routing model trained",
		"domains", len(ids),
		"vocabulary", len(m.vectorizer.vocabulary))
}

// Trained reports whether a model is currently loaded.
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model != nil
}

// Scores returns the relevance breakdown for every trained domain.
// An untrained engine returns an empty map. Scoring has no failure mode:
// a domain with no overlapping signal scores 0, it does not error.
func (e *Engine) Scores(requestText string) map[string]Score {
	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()

	scores := make(map[string]Score)
	if m == nil {
		return scores
	}

	normalized := domains.NormalizeRequest(requestText)
	queryVec := m.vectorizer.transform(requestText)

	for id, profile := range m.profiles {
		kwScore, matched := m.keywords[id].score(normalized)
		tfScore := cosine(queryVec, profile)
		if tfScore < 0 {
			tfScore = 0
		} else if tfScore > 1 {
			tfScore = 1
		}

		scores[id] = Score{
			Final:           keywordWeight*kwScore + tfidfWeight*tfScore,
			Keyword:         kwScore,
			TFIDF:           tfScore,
			MatchedKeywords: matched,
		}
	}
	return scores
}

// profileText builds the training document for one domain. Keywords are
// repeated three times and capabilities twice so declared intent dominates
// free-form description text in the vector space.
func profileText(info domains.DomainInfo) string {
	var parts []string
	parts = append(parts, info.Description)
	for i := 0; i < 2; i++ {
		parts = append(parts, info.Capabilities...)
	}
	for i := 0; i < 3; i++ {
		parts = append(parts, info.Keywords...)
	}
	return strings.Join(parts, " ")
}
