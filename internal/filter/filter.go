/*
Package filter decides whether a disclosure is worth an alert. Titles are
screened first (Stage A) so that most filings never cost a document fetch;
titles that survive are then checked against the document body (Stage B).
*/
package filter

import (
	"fmt"
	"strings"
)

// Tag is the category a disclosure falls into.
type Tag int

const (
	TagGeneric Tag = iota
	TagBiotech
	TagRobotics
	TagSupplyContract
	TagCapitalAction
	TagGovernance
	TagExcluded
)

func (t Tag) String() string {
	switch t {
	case TagBiotech:
		return "BIOTECH"
	case TagRobotics:
		return "ROBOTICS"
	case TagSupplyContract:
		return "SUPPLY_CONTRACT"
	case TagCapitalAction:
		return "CAPITAL_ACTION"
	case TagGovernance:
		return "GOVERNANCE"
	case TagExcluded:
		return "EXCLUDED"
	default:
		return "GENERIC"
	}
}

// Label is the Korean display name used in alerts.
func (t Tag) Label() string {
	switch t {
	case TagBiotech:
		return "바이오/기술"
	case TagRobotics:
		return "로봇/자동화"
	case TagSupplyContract:
		return "공급계약"
	case TagCapitalAction:
		return "자본정책"
	case TagGovernance:
		return "지배구조"
	case TagExcluded:
		return "제외"
	default:
		return "일반"
	}
}

type Severity int

const (
	SeverityNone Severity = iota
	SeverityModerate
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityModerate:
		return "moderate"
	default:
		return "none"
	}
}

type Decision int

const (
	Reject Decision = iota
	Pass
)

// Verdict is the outcome of the title-only pre-filter.
type Verdict struct {
	Decision   Decision
	Tag        Tag
	NeedsBody  bool
	Correction bool
	Reason     string
}

// Result is the classification of a single disclosure.
type Result struct {
	Hot      bool
	Tag      Tag
	Score    int
	Severity Severity
	Grade    string
	Keyword  string
	Note     string
	Ratio    float64
	HasRatio bool
	Evidence string
	Reason   string
}

type MissingRatioPolicy string

const (
	MissingRatioBlock MissingRatioPolicy = "block"
	MissingRatioPass  MissingRatioPolicy = "pass"
)

// Policy holds the tunable thresholds of the engine.
type Policy struct {
	RatioThreshold     float64
	TestRatioThreshold float64
	ExtremeRatio       float64
	MissingRatio       MissingRatioPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		RatioThreshold:     20,
		TestRatioThreshold: 10,
		ExtremeRatio:       50,
		MissingRatio:       MissingRatioBlock,
	}
}

const (
	gradeExtreme    = "초대형"
	gradeSolid      = "우량"
	gradeCorrection = "정정"
	gradeConfirmed  = "확정"
	gradeProgress   = "진행"
	gradeCaution    = "주의"
	gradeListed     = "공시"
)

type Engine struct {
	policy Policy
}

func NewEngine(p Policy) *Engine {
	d := DefaultPolicy()
	if p.RatioThreshold <= 0 {
		p.RatioThreshold = d.RatioThreshold
	}
	if p.TestRatioThreshold <= 0 {
		p.TestRatioThreshold = d.TestRatioThreshold
	}
	if p.ExtremeRatio <= 0 {
		p.ExtremeRatio = d.ExtremeRatio
	}
	if p.MissingRatio != MissingRatioPass {
		p.MissingRatio = MissingRatioBlock
	}
	return &Engine{policy: p}
}

// TestMode returns an engine that applies the test-mode ratio threshold.
func (e *Engine) TestMode() *Engine {
	p := e.policy
	p.RatioThreshold = p.TestRatioThreshold
	return &Engine{policy: p}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// PreFilter screens a title without touching the document body.
func (e *Engine) PreFilter(title string) Verdict {
	title = strings.TrimSpace(title)
	if title == "" {
		return Verdict{Decision: Reject, Tag: TagGeneric, Reason: "empty title"}
	}

	if m := tentativePattern.FindString(title); m != "" {
		return Verdict{Decision: Reject, Tag: TagExcluded, Reason: "tentative wording: " + m}
	}
	if m := disposalPattern.FindString(title); m != "" {
		return Verdict{Decision: Reject, Tag: TagExcluded, Reason: "excluded wording: " + m}
	}

	correction := correctionPattern.MatchString(title)
	if correction && !supplyContractPattern.MatchString(title) {
		return Verdict{Decision: Reject, Tag: TagExcluded, Reason: "correction filing"}
	}

	for _, r := range inclusionRules {
		if !r.pattern.MatchString(title) {
			continue
		}

		v := Verdict{Decision: Pass, Tag: r.tag, NeedsBody: true, Correction: correction}
		switch r.tag {
		case TagBiotech, TagRobotics:
			v.NeedsBody = !strongTitlePattern.MatchString(title)
		case TagSupplyContract:
			v.NeedsBody = !correction
		}
		return v
	}

	return Verdict{Decision: Reject, Tag: TagGeneric, Reason: "no inclusion match"}
}

// Classify applies the body-aware rules to a title that passed PreFilter.
// body may be empty when the document could not be fetched.
func (e *Engine) Classify(v Verdict, title, body string) Result {
	if v.Decision != Pass {
		return Result{Tag: v.Tag, Reason: v.Reason}
	}

	score := Score(title)
	res := Result{
		Tag:      v.Tag,
		Score:    score,
		Severity: SeverityFor(score, title),
		Keyword:  HotKeyword(title + "\n" + body),
	}

	switch v.Tag {
	case TagSupplyContract:
		e.classifyContract(&res, v, body)
	case TagBiotech, TagRobotics:
		classifyResearch(&res, title, body)
	case TagCapitalAction, TagGovernance:
		classifyStructural(&res, body)
	default:
		classifyCatchAll(&res, body)
	}

	if !res.Hot {
		res.Severity = SeverityNone
	}
	return res
}

// Evaluate runs both stages in one call.
func (e *Engine) Evaluate(title, body string) Result {
	return e.Classify(e.PreFilter(title), title, body)
}

func (e *Engine) classifyContract(res *Result, v Verdict, body string) {
	if v.Correction {
		res.Hot = true
		res.Grade = gradeCorrection
		res.Note = "기존 계약 정정 공시"
		return
	}

	ratio, label, ok := matchRatio(body)
	if !ok {
		if e.policy.MissingRatio == MissingRatioPass {
			res.Hot = true
			res.Grade = gradeListed
			res.Note = "매출액 대비 비율 확인 불가"
			return
		}
		res.Reason = "revenue ratio not found"
		return
	}

	res.Ratio = ratio
	res.HasRatio = true
	res.Evidence = label
	res.Note = fmt.Sprintf("매출액 대비 %s%%", formatRatio(ratio))

	if ratio < e.policy.RatioThreshold {
		res.Reason = fmt.Sprintf("revenue ratio %s%% below %s%%", formatRatio(ratio), formatRatio(e.policy.RatioThreshold))
		return
	}

	res.Hot = true
	res.Grade = gradeSolid
	if ratio >= e.policy.ExtremeRatio {
		res.Grade = gradeExtreme
		res.Severity = SeverityHigh
	}
}

func classifyResearch(res *Result, title, body string) {
	combined := title + "\n" + body

	if !strongTitlePattern.MatchString(title) {
		m := extendedPattern.FindString(combined)
		if m == "" {
			res.Reason = "no clinical or technology signal"
			return
		}
		res.Evidence = m
	}

	res.Hot = true
	res.Grade = gradeProgress
	if outcomePattern.MatchString(title) || outcomePattern.MatchString(body) {
		res.Grade = gradeConfirmed
		res.Severity = SeverityHigh
	}
}

func classifyStructural(res *Result, body string) {
	res.Hot = true
	if m := cautionPattern.FindString(body); m != "" {
		res.Grade = gradeCaution
		res.Evidence = m
		res.Note = "일정 연기/지연 언급, 진행 상황 확인 필요"
		return
	}
	res.Grade = gradeConfirmed
	res.Note = "주주환원·지배구조 관련 확정 공시"
}

func classifyCatchAll(res *Result, body string) {
	m := secondaryPattern.FindString(body)
	if m == "" {
		res.Reason = "no supporting keyword in body"
		return
	}
	res.Hot = true
	res.Grade = gradeListed
	res.Evidence = m
}
