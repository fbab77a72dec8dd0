package filter

import (
	"strings"
	"testing"
)

func TestPreFilter_ExclusionWinsOverInclusion(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	titles := []string{
		"무상증자 결정 계획",
		"임상 3상 결과 발표 예정",
		"FDA 승인 가능성 검토",
		"자기주식처분결정",
		"자기주식취득 신탁계약 체결",
		"[기재정정]최대주주변경",
		"단일판매ㆍ공급계약 체결 추진",
	}
	for _, title := range titles {
		v := e.PreFilter(title)
		if v.Decision != Reject || v.Tag != TagExcluded {
			t.Errorf("PreFilter(%q) = %+v, want excluded", title, v)
		}
		if r := e.Classify(v, title, "임상 3상 결과 성공, 매출액 대비(%) 90.0"); r.Hot || r.Tag != TagExcluded {
			t.Errorf("Classify(%q) = %+v, want excluded and not hot", title, r)
		}
	}
}

func TestPreFilter_Categories(t *testing.T) {
	e := NewEngine(DefaultPolicy())

	tests := []struct {
		title     string
		tag       Tag
		needsBody bool
	}{
		{"단일판매ㆍ공급계약체결", TagSupplyContract, true},
		{"[기재정정]단일판매ㆍ공급계약체결", TagSupplyContract, false},
		{"임상 3상 결과 발표", TagBiotech, false},
		{"임상시험계획 변경 신고", TagExcluded, false},
		{"임상 1상 투약 개시", TagBiotech, true},
		{"기술이전 계약 체결", TagBiotech, false},
		{"규제 샌드박스 지정", TagBiotech, true},
		{"휴머노이드 로봇 신제품 공개", TagRobotics, true},
		{"주요사항보고서(무상증자결정)", TagCapitalAction, true},
		{"주요사항보고서(자기주식소각결정)", TagCapitalAction, true},
		{"유상증자결정(제3자배정)", TagCapitalAction, true},
		{"최대주주변경", TagGovernance, true},
		{"주요사항보고서(자산양수도결정)", TagGovernance, true},
		{"투자판단관련주요경영사항", TagGeneric, true},
		{"기타시장안내", TagGeneric, true},
	}

	for _, tt := range tests {
		v := e.PreFilter(tt.title)
		if tt.tag == TagExcluded {
			if v.Decision != Reject {
				t.Errorf("PreFilter(%q) passed, want reject", tt.title)
			}
			continue
		}
		if v.Decision != Pass {
			t.Errorf("PreFilter(%q) rejected (%s), want pass", tt.title, v.Reason)
			continue
		}
		if v.Tag != tt.tag {
			t.Errorf("PreFilter(%q) tag = %s, want %s", tt.title, v.Tag, tt.tag)
		}
		if v.NeedsBody != tt.needsBody {
			t.Errorf("PreFilter(%q) NeedsBody = %t, want %t", tt.title, v.NeedsBody, tt.needsBody)
		}
	}
}

func TestPreFilter_NoMatchDropped(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	for _, title := range []string{"", "분기보고서 (2025.09)", "임원ㆍ주요주주특정증권등소유상황보고서"} {
		if v := e.PreFilter(title); v.Decision != Reject || v.Tag != TagGeneric {
			t.Errorf("PreFilter(%q) = %+v, want generic reject", title, v)
		}
	}
}

func TestClassify_SupplyContractThresholds(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	title := "㈜가나 단일판매ㆍ공급계약 체결"

	tests := []struct {
		name     string
		body     string
		hot      bool
		grade    string
		severity Severity
		note     string
	}{
		{"solid", "계약금액 120억원\n최근 매출액 대비(%)\n35.2\n계약기간", true, "우량", SeverityModerate, "35.2%"},
		{"exactly at threshold", "매출액 대비 (%) 20", true, "우량", SeverityModerate, "20.0%"},
		{"extreme", "매출액대비(%) : 50.0", true, "초대형", SeverityHigh, "50.0%"},
		{"below", "매출액 대비 (%) 8.0", false, "", SeverityNone, "8.0%"},
		{"with thousands separator", "매출액 대비(%) 1,234.5", true, "초대형", SeverityHigh, "1234.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Evaluate(title, tt.body)
			if r.Hot != tt.hot {
				t.Fatalf("Hot = %t, want %t (reason %q)", r.Hot, tt.hot, r.Reason)
			}
			if r.Tag != TagSupplyContract {
				t.Errorf("Tag = %s, want SUPPLY_CONTRACT", r.Tag)
			}
			if r.Grade != tt.grade {
				t.Errorf("Grade = %q, want %q", r.Grade, tt.grade)
			}
			if r.Severity != tt.severity {
				t.Errorf("Severity = %s, want %s", r.Severity, tt.severity)
			}
			if !strings.Contains(r.Note, tt.note) {
				t.Errorf("Note = %q, want it to contain %q", r.Note, tt.note)
			}
		})
	}
}

func TestClassify_SolidContractNote(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	r := e.Evaluate("㈜가나 단일판매ㆍ공급계약 체결", "매출액 대비 (%) 35.2")

	if !r.Hot || r.Grade != "우량" {
		t.Fatalf("got %+v, want hot with grade 우량", r)
	}
	if !strings.Contains(r.Note, "35.2%") {
		t.Errorf("Note = %q, want 35.2%%", r.Note)
	}
	if !r.HasRatio || r.Ratio != 35.2 {
		t.Errorf("Ratio = %v (%t), want 35.2", r.Ratio, r.HasRatio)
	}
}

func TestClassify_TestModeThreshold(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	title := "단일판매ㆍ공급계약체결"
	body := "매출액 대비(%) 12.5"

	if r := e.Evaluate(title, body); r.Hot {
		t.Errorf("live mode passed 12.5%%, want reject")
	}
	if r := e.TestMode().Evaluate(title, body); !r.Hot {
		t.Errorf("test mode rejected 12.5%% (%s), want pass", r.Reason)
	}
	if e.Policy().RatioThreshold != 20 {
		t.Error("TestMode mutated the original engine")
	}
}

func TestClassify_MissingRatioPolicy(t *testing.T) {
	title := "단일판매ㆍ공급계약체결"
	body := "계약 상대방: 해외 고객사"

	block := NewEngine(DefaultPolicy())
	if r := block.Evaluate(title, body); r.Hot {
		t.Errorf("block policy passed a contract without ratio")
	}

	p := DefaultPolicy()
	p.MissingRatio = MissingRatioPass
	pass := NewEngine(p)
	r := pass.Evaluate(title, body)
	if !r.Hot {
		t.Fatalf("pass policy rejected: %s", r.Reason)
	}
	if r.HasRatio {
		t.Error("HasRatio set without a figure")
	}
}

func TestClassify_EmptyRatioCellIsMissing(t *testing.T) {
	p := DefaultPolicy()
	p.MissingRatio = MissingRatioPass
	e := NewEngine(p)

	r := e.Evaluate("단일판매ㆍ공급계약체결", "- 매출액 대비(%)\n\n3. 계약상대방")
	if !r.Hot || r.HasRatio {
		t.Fatalf("got hot=%t ratio=%v (%t) reason %q, want missing-ratio pass", r.Hot, r.Ratio, r.HasRatio, r.Reason)
	}
	if r.Grade != "공시" {
		t.Errorf("Grade = %q, want 공시", r.Grade)
	}
}

func TestClassify_RatioEvidenceAsWritten(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	body := "6. 계약금액 120억원\n최근 매출액대비(%)\n35.2"

	r := e.Evaluate("단일판매ㆍ공급계약체결", body)
	if !r.Hot {
		t.Fatalf("rejected: %s", r.Reason)
	}
	if r.Evidence != "매출액대비(%)" {
		t.Errorf("Evidence = %q, want the label as written", r.Evidence)
	}
	if !strings.Contains(body, r.Evidence) {
		t.Errorf("Evidence %q not found in body", r.Evidence)
	}
}

func TestClassify_ContractCorrectionPasses(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	r := e.Evaluate("[기재정정]단일판매ㆍ공급계약체결", "매출액 대비(%) 3.0")
	if !r.Hot {
		t.Fatalf("correction rejected: %s", r.Reason)
	}
	if !strings.Contains(r.Note, "정정") {
		t.Errorf("Note = %q, want correction note", r.Note)
	}
}

func TestClassify_ClinicalTitleOnly(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	r := e.Evaluate("임상 3상 결과 발표", "")

	if !r.Hot {
		t.Fatalf("rejected: %s", r.Reason)
	}
	if r.Tag != TagBiotech {
		t.Errorf("Tag = %s, want BIOTECH", r.Tag)
	}
	if r.Severity != SeverityHigh {
		t.Errorf("Severity = %s, want high", r.Severity)
	}
	if r.Keyword != "임상 3상 결과" {
		t.Errorf("Keyword = %q", r.Keyword)
	}
}

func TestClassify_ResearchNeedsBodySignal(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	title := "임상 1상 투약 개시"

	if r := e.Evaluate(title, "회사 일반 현황 안내"); !r.Hot {
		// title itself carries 임상 1상, which the extended set recognises
		t.Fatalf("rejected: %s", r.Reason)
	}

	robot := "협동로봇 신규 라인업"
	if r := e.Evaluate(robot, "일반 안내"); !r.Hot {
		t.Fatalf("robot title rejected: %s", r.Reason)
	}

	r := e.Evaluate("규제 샌드박스 지정", "특이사항 없음")
	if r.Hot {
		t.Errorf("sandbox without any extended keyword passed")
	}
	r = e.Evaluate("규제 샌드박스 지정", "AI 기반 진단 서비스, 식약처 협의 결과 반영")
	if !r.Hot {
		t.Fatalf("sandbox with AI body rejected: %s", r.Reason)
	}
	if r.Grade != "확정" {
		t.Errorf("Grade = %q, want 확정 (outcome word in body)", r.Grade)
	}
}

func TestClassify_StructuralCautionNote(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	title := "주요사항보고서(무상증자결정)"

	r := e.Evaluate(title, "신주 배정기준일 2025-11-01")
	if !r.Hot || r.Grade != "확정" {
		t.Errorf("got %+v, want confirmed", r)
	}

	r = e.Evaluate(title, "신주 상장 예정일이 연기되었습니다")
	if !r.Hot {
		t.Fatal("structural disclosure must always pass")
	}
	if r.Grade != "주의" || !strings.Contains(r.Note, "연기") {
		t.Errorf("got grade %q note %q, want caution", r.Grade, r.Note)
	}
}

func TestClassify_CatchAllRequiresBodyKeyword(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	title := "투자판단관련주요경영사항"

	if r := e.Evaluate(title, "회사 홈페이지 개편 안내"); r.Hot {
		t.Error("catch-all without secondary keyword passed")
	}
	r := e.Evaluate(title, "미국 특허 등록 완료")
	if !r.Hot {
		t.Fatalf("catch-all with patent keyword rejected: %s", r.Reason)
	}
	if r.Evidence != "특허" {
		t.Errorf("Evidence = %q, want 특허", r.Evidence)
	}
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	p := NewEngine(Policy{MissingRatio: "bogus"}).Policy()
	if p.RatioThreshold != 20 || p.TestRatioThreshold != 10 || p.ExtremeRatio != 50 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.MissingRatio != MissingRatioBlock {
		t.Errorf("MissingRatio = %q, want block", p.MissingRatio)
	}
}
