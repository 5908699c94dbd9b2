// Package survey scores the experience survey: free-text and coded responses
// are parsed per the question table, aggregated into five blocks, and blended
// into a single 0-100 Experience Index.
//
// Block methodology:
//
//   - Awareness: 2/3 unaided recall rate + 1/3 aided recall rate, both over
//     the non-empty responses to their question.
//   - Satisfaction: mean of the three aspect degrees, weighted 1:3 against
//     the overall-satisfaction degree.
//   - Positioning and Territories: the two statements pool into one
//     mean-based degree each.
//   - Relationship intent: Top-2-Box share of the pooled statements.
//
// A Likert degree rescales the 1-5 mean linearly to 0-100:
// ((mean-1)/4)*100. The overall index is the unweighted mean of the five
// block degrees. Every reported mean and share rounds to 2 decimals.
package survey

import (
	"math"
	"strings"
	"time"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

// Stats are the mean-based statistics of one Likert series.
type Stats struct {
	Mean   float64
	Degree float64
	Total  int
}

// TopBox is the share of scores at or above the top-box threshold.
type TopBox struct {
	Percent float64
	Total   int
}

// QuestionStats pairs a question label with its series statistics.
type QuestionStats struct {
	Label string
	Stats
}

// RelationshipQuestion carries both views of a relationship statement.
type RelationshipQuestion struct {
	Label string
	Stats
	TopBox TopBox
}

// RecallAnswer is one non-empty free-text recall response, with the "what
// makes you think that" follow-up when the respondent gave one.
type RecallAnswer struct {
	SurveyID int64
	Answer   string
	Reason   string
}

// RecallQuestion partitions the recall answers into brand-matched and
// unmatched, with the matched share over the non-empty responses.
type RecallQuestion struct {
	Label     string
	Percent   float64
	Total     int
	Matched   []RecallAnswer
	Unmatched []RecallAnswer
}

// ReasonAnswer is one follow-up reason joined to the recall answer that
// prompted it. Source is the recall question the respondent answered first
// (unaided wins over aided), or empty when neither was answered.
type ReasonAnswer struct {
	SurveyID     int64
	Reason       string
	RecallAnswer string
	Source       string
}

// ReasonAnalysis partitions the follow-up reasons by whether their recall
// answer referenced the brand.
type ReasonAnalysis struct {
	Percent   float64
	Total     int
	Matched   []ReasonAnswer
	Unmatched []ReasonAnswer
}

// AwarenessBlock is the brand-recall block.
type AwarenessBlock struct {
	Unaided RecallQuestion
	Aided   RecallQuestion
	Reasons ReasonAnalysis

	// Recalled counts non-empty recall responses across both questions;
	// NoRecall counts surveys that answered neither.
	Recalled        int
	NoRecall        int
	NoRecallPercent float64

	Degree float64
}

// SatisfactionBlock is the aspect + overall satisfaction block.
type SatisfactionBlock struct {
	Aspects []QuestionStats
	Overall QuestionStats
	Degree  float64
}

// PooledBlock pools two or more statements into one mean-based degree.
type PooledBlock struct {
	Questions []QuestionStats
	Pooled    Stats
	Degree    float64
}

// RelationshipBlock scores relationship intent as a pooled Top-2-Box share.
type RelationshipBlock struct {
	Questions []RelationshipQuestion
	Pooled    TopBox
	Degree    float64
}

// Comment is one qualitative comment joined to its author's profile. Surveys
// without a resolvable user report the unknown bracket and no account.
type Comment struct {
	Text       string
	AgeBracket string
	HasAccount bool
	CreatedAt  string
}

// Analysis is the full survey scoring result.
type Analysis struct {
	TotalSurveys int
	OverallIndex float64
	Awareness    AwarenessBlock
	Satisfaction SatisfactionBlock
	Positioning  PooledBlock
	Territories  PooledBlock
	Relationship RelationshipBlock
	Comments     []Comment
}

type parsedSurvey struct {
	id        int64
	row       dataset.Row
	responses []Response
}

// Analyze scores every survey row in the snapshot. The reference time feeds
// the age classification of comment authors.
func Analyze(snap *dataset.Snapshot, cfg Config, now time.Time) *Analysis {
	a := &analyzer{
		snap:    snap,
		cfg:     cfg,
		matcher: NewBrandMatcher(cfg.BrandVariants),
		now:     now,
	}
	for _, row := range snap.Rows(dataset.TableSurveys) {
		s := parsedSurvey{row: row, responses: Responses(row)}
		s.id, _ = row.ID()
		a.surveys = append(a.surveys, s)
	}

	out := &Analysis{TotalSurveys: len(a.surveys)}
	out.Awareness = a.awareness()
	out.Satisfaction = a.satisfaction()
	out.Positioning = a.pooled(cfg.Questions.Positioning)
	out.Territories = a.pooled(cfg.Questions.Territories)
	out.Relationship = a.relationship()
	out.Comments = a.comments()
	out.OverallIndex = round2((out.Awareness.Degree +
		out.Satisfaction.Degree +
		out.Positioning.Degree +
		out.Territories.Degree +
		out.Relationship.Degree) / 5)
	return out
}

type analyzer struct {
	snap    *dataset.Snapshot
	cfg     Config
	matcher *BrandMatcher
	now     time.Time
	surveys []parsedSurvey
}

// likertSeries collects the numeric values answered to one Likert question.
// Surveys without the question, or with an answer carrying no leading number,
// contribute nothing.
func (a *analyzer) likertSeries(q Question) []float64 {
	if q.Kind != Likert {
		return nil
	}
	var values []float64
	for _, s := range a.surveys {
		answer, ok := FindAnswer(s.responses, q.Prefix)
		if !ok {
			continue
		}
		if v, ok := ExtractLeadingNumber(answer); ok {
			values = append(values, v)
		}
	}
	return values
}

// textAnswer returns the trimmed-nonempty free-text answer to a question.
func (a *analyzer) textAnswer(s parsedSurvey, q Question) (string, bool) {
	answer, ok := FindAnswer(s.responses, q.Prefix)
	if !ok || trimEmpty(answer) {
		return "", false
	}
	return answer, true
}

func (a *analyzer) awareness() AwarenessBlock {
	q := a.cfg.Questions
	unaided := a.recallQuestion(q.UnaidedRecall)
	aided := a.recallQuestion(q.AidedRecall)

	block := AwarenessBlock{
		Unaided:  unaided,
		Aided:    aided,
		Reasons:  a.reasonAnalysis(),
		Recalled: unaided.Total + aided.Total,
		Degree:   round2(2.0/3.0*unaided.Percent + 1.0/3.0*aided.Percent),
	}

	for _, s := range a.surveys {
		_, answered1 := a.textAnswer(s, q.UnaidedRecall)
		_, answered2 := a.textAnswer(s, q.AidedRecall)
		if !answered1 && !answered2 {
			block.NoRecall++
		}
	}
	block.NoRecallPercent = percent(block.NoRecall, len(a.surveys))
	return block
}

func (a *analyzer) recallQuestion(q Question) RecallQuestion {
	out := RecallQuestion{Label: q.Label}
	for _, s := range a.surveys {
		answer, ok := a.textAnswer(s, q)
		if !ok {
			continue
		}
		item := RecallAnswer{SurveyID: s.id, Answer: answer}
		if reason, ok := a.textAnswer(s, a.cfg.Questions.RecallReason); ok {
			item.Reason = reason
		}
		if a.matcher.Matches(answer) {
			out.Matched = append(out.Matched, item)
		} else {
			out.Unmatched = append(out.Unmatched, item)
		}
	}
	out.Total = len(out.Matched) + len(out.Unmatched)
	out.Percent = percent(len(out.Matched), out.Total)
	return out
}

func (a *analyzer) reasonAnalysis() ReasonAnalysis {
	q := a.cfg.Questions
	var out ReasonAnalysis
	for _, s := range a.surveys {
		reason, ok := a.textAnswer(s, q.RecallReason)
		if !ok {
			continue
		}

		item := ReasonAnswer{SurveyID: s.id, Reason: reason}
		matched := false
		if answer, ok := a.textAnswer(s, q.UnaidedRecall); ok {
			item.RecallAnswer = answer
			item.Source = q.UnaidedRecall.Prefix
			matched = a.matcher.Matches(answer)
		} else if answer, ok := a.textAnswer(s, q.AidedRecall); ok {
			item.RecallAnswer = answer
			item.Source = q.AidedRecall.Prefix
			matched = a.matcher.Matches(answer)
		}

		if matched {
			out.Matched = append(out.Matched, item)
		} else {
			out.Unmatched = append(out.Unmatched, item)
		}
	}
	out.Total = len(out.Matched) + len(out.Unmatched)
	out.Percent = percent(len(out.Matched), out.Total)
	return out
}

func (a *analyzer) satisfaction() SatisfactionBlock {
	q := a.cfg.Questions

	block := SatisfactionBlock{}
	var aspectDegreeSum float64
	for _, aspect := range q.Aspects {
		stats := computeStats(a.likertSeries(aspect))
		aspectDegreeSum += stats.Degree
		block.Aspects = append(block.Aspects, QuestionStats{Label: aspect.Label, Stats: stats})
	}
	// An aspect with no responses still weighs into the average at zero.
	aspectAvg := 0.0
	if len(q.Aspects) > 0 {
		aspectAvg = aspectDegreeSum / float64(len(q.Aspects))
	}

	overall := computeStats(a.likertSeries(q.Overall))
	block.Overall = QuestionStats{Label: q.Overall.Label, Stats: overall}
	block.Degree = round2((aspectAvg + overall.Degree*3) / 4)
	return block
}

func (a *analyzer) pooled(questions []Question) PooledBlock {
	var block PooledBlock
	var all []float64
	for _, q := range questions {
		series := a.likertSeries(q)
		all = append(all, series...)
		block.Questions = append(block.Questions, QuestionStats{Label: q.Label, Stats: computeStats(series)})
	}
	block.Pooled = computeStats(all)
	block.Degree = block.Pooled.Degree
	return block
}

func (a *analyzer) relationship() RelationshipBlock {
	var block RelationshipBlock
	var all []float64
	for _, q := range a.cfg.Questions.Relationship {
		series := a.likertSeries(q)
		all = append(all, series...)
		block.Questions = append(block.Questions, RelationshipQuestion{
			Label:  q.Label,
			Stats:  computeStats(series),
			TopBox: a.topBox(series),
		})
	}
	block.Pooled = a.topBox(all)
	block.Degree = block.Pooled.Percent
	return block
}

func (a *analyzer) comments() []Comment {
	userBySurvey := make(map[int64]int64)
	for _, link := range a.snap.Rows(dataset.TableSurveyUserLinks) {
		surveyID, ok := link.Int64(dataset.FieldSurveyID)
		if !ok {
			continue
		}
		if userID, ok := link.Int64(dataset.FieldUserID); ok {
			userBySurvey[surveyID] = userID
		}
	}
	users := make(map[int64]dataset.Row)
	for _, row := range a.snap.Rows(dataset.TableUsers) {
		if id, ok := row.ID(); ok {
			users[id] = row
		}
	}

	var out []Comment
	for _, s := range a.surveys {
		text := ""
		for _, r := range s.responses {
			if !trimEmpty(r.Comment) {
				text = r.Comment
				break
			}
		}
		if text == "" {
			continue
		}

		comment := Comment{
			Text:       text,
			AgeBracket: agegroup.Unknown.Label(),
		}
		comment.CreatedAt, _ = s.row.String(dataset.FieldCreatedAt)
		if user, ok := users[userBySurvey[s.id]]; ok {
			birth, _ := user.Time(dataset.FieldBirthDate)
			comment.AgeBracket = agegroup.Classify(birth, a.now).Label()
			comment.HasAccount, _ = user.Bool(dataset.FieldHasAccount)
		}
		out = append(out, comment)
	}
	return out
}

func (a *analyzer) topBox(values []float64) TopBox {
	if len(values) == 0 {
		return TopBox{}
	}
	hits := 0
	for _, v := range values {
		if v >= a.cfg.TopBoxThreshold {
			hits++
		}
	}
	return TopBox{Percent: percent(hits, len(values)), Total: len(values)}
}

// computeStats derives mean and degree from a 1-5 Likert series. The empty
// series reports all zeros, not a NaN degree.
func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	return Stats{
		Mean:   round2(mean),
		Degree: round2((mean - 1) / 4 * 100),
		Total:  len(values),
	}
}

func trimEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}
