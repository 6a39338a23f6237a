package progress

import (
	"fmt"
	"sort"
)

// TopicProgress is one row of a report.
type TopicProgress struct {
	Topic        string
	DisplayTopic string
	Correct      int
	Total        int
	Accuracy     float64
	Strength     Strength
}

// Summary aggregates a student's topics.
type Summary struct {
	Topics     int
	Correct    int
	Total      int
	Accuracy   float64
	Weak       int
	Developing int
	Strong     int
}

// Recommendation names what to study next.
type Recommendation struct {
	// FocusTopic is empty when Broad is set.
	FocusTopic string
	Broad      bool
	Message    string
}

// Report is the structured progress of one student. All numbers are
// computed from the stored counters.
type Report struct {
	StudentID      string
	Topics         []TopicProgress
	Overall        Summary
	Recommendation Recommendation
}

// Report builds the progress report for studentID.
func (t *Tracker) Report(studentID string) Report {
	return BuildReport(studentID, t.Records(studentID))
}

// BuildReport derives a report from records.
func BuildReport(studentID string, records []Record) Report {
	rep := Report{StudentID: studentID, Topics: make([]TopicProgress, 0, len(records))}
	for _, r := range records {
		tp := TopicProgress{
			Topic:        r.Topic,
			DisplayTopic: r.DisplayTopic,
			Correct:      r.Correct,
			Total:        r.Total,
			Accuracy:     r.Accuracy(),
			Strength:     r.Strength(),
		}
		if tp.DisplayTopic == "" {
			tp.DisplayTopic = tp.Topic
		}
		rep.Topics = append(rep.Topics, tp)

		rep.Overall.Topics++
		rep.Overall.Correct += r.Correct
		rep.Overall.Total += r.Total
		switch tp.Strength {
		case StrengthWeak:
			rep.Overall.Weak++
		case StrengthStrong:
			rep.Overall.Strong++
		default:
			rep.Overall.Developing++
		}
	}
	sort.Slice(rep.Topics, func(i, j int) bool { return rep.Topics[i].Topic < rep.Topics[j].Topic })
	rep.Overall.Accuracy = Accuracy(rep.Overall.Correct, rep.Overall.Total)
	rep.Recommendation = recommend(rep.Topics)
	return rep
}

// recommend picks the lowest-accuracy topic with enough answers, ties
// broken by topic name.
func recommend(topics []TopicProgress) Recommendation {
	var focus *TopicProgress
	for i := range topics {
		tp := &topics[i]
		if tp.Total < MinAnswersForSignal {
			continue
		}
		if focus == nil || tp.Accuracy < focus.Accuracy ||
			(tp.Accuracy == focus.Accuracy && tp.Topic < focus.Topic) {
			focus = tp
		}
	}
	if focus == nil {
		return Recommendation{
			Broad:   true,
			Message: "Not enough answers on any topic yet; continue broad practice.",
		}
	}
	return Recommendation{
		FocusTopic: focus.DisplayTopic,
		Message: fmt.Sprintf("Focus on %s: %d of %d correct (%.0f%%, %s).",
			focus.DisplayTopic, focus.Correct, focus.Total, focus.Accuracy*100, focus.Strength),
	}
}
