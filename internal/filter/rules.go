package filter

import "regexp"

// Rule sets are evaluated in slice order and the first match wins, so the
// order below decides which category a title lands in.

type tagRule struct {
	pattern *regexp.Regexp
	tag     Tag
}

type keywordRule struct {
	label   string
	pattern *regexp.Regexp
}

type scoreRule struct {
	pattern *regexp.Regexp
	points  int

	// fallback is tried only when pattern does not match.
	fallback       *regexp.Regexp
	fallbackPoints int
}

var (
	// Tentative or non-final wording. A title matching any of these is
	// excluded even when it also matches an inclusion rule.
	tentativePattern = regexp.MustCompile(`계획|예정|검토|가능성|기대|준비\s*중|추진`)
	disposalPattern  = regexp.MustCompile(`처분|신탁\s*계약|해지|철회`)

	// Corrections are excluded except for supply contracts.
	correctionPattern = regexp.MustCompile(`정정`)
)

var supplyContractPattern = regexp.MustCompile(`공급\s*계약|판매\s*계약|수주`)

var inclusionRules = []tagRule{
	{supplyContractPattern, TagSupplyContract},

	{regexp.MustCompile(`임상\s*(?:시험)?\s*(?:결과|성공)|임상\s*[123]\s*상`), TagBiotech},
	{regexp.MustCompile(`(?i)(?:FDA|EMA|PMDA|IND|NDA|BLA|식약처|MFDS)\s*(?:승인|허가|제출|접수)|품목\s*허가`), TagBiotech},
	{regexp.MustCompile(`(?i)기술\s*이전|라이선스\s*(?:아웃|계약)|L/O`), TagBiotech},
	{regexp.MustCompile(`규제\s*샌드박스|샌드박스\s*(?:선정|승인|통과|지정)`), TagBiotech},
	{regexp.MustCompile(`(?i)CSR\s*(?:제출|수령|확인|결과)|결과\s*보고서|최종\s*결과\s*보고|톱라인|탑라인|top-?line`), TagBiotech},
	{regexp.MustCompile(`탈모\s*(?:신약|치료제|재생)`), TagBiotech},

	{regexp.MustCompile(`(?i)로봇\s*(?:신제품|출시|공개)|산업용\s*로봇|AI\s*로봇|휴머노이드|자율\s*주행\s*로봇|협동\s*로봇`), TagRobotics},

	{regexp.MustCompile(`무상\s*증자`), TagCapitalAction},
	{regexp.MustCompile(`자사주\s*(?:소각|매입)|자기\s*주식\s*(?:소각|취득)`), TagCapitalAction},
	{regexp.MustCompile(`제\s*3\s*자\s*배정|유상\s*증자\s*결정\s*\(\s*제\s*3\s*자`), TagCapitalAction},
	{regexp.MustCompile(`주주\s*가치\s*제고`), TagCapitalAction},

	{regexp.MustCompile(`최대\s*주주\s*(?:의\s*)?변경`), TagGovernance},
	{regexp.MustCompile(`(?:자산|영업|주식)\s*양수|양수도`), TagGovernance},

	{regexp.MustCompile(`투자\s*판단\s*관련\s*주요\s*경영\s*사항|기타\s*시장\s*안내|주요\s*경영\s*사항`), TagGeneric},
	{regexp.MustCompile(`투자\s*유치|전략적\s*투자`), TagGeneric},

	{regexp.MustCompile(`(?:대규모|글로벌)?\s*(?:공급|수주|계약)\s*(?:체결|확보|완료)`), TagSupplyContract},
}

var (
	strongTitlePattern = regexp.MustCompile(`(?i)임상\s*[23]\s*상.*(?:결과|성공)|톱라인|탑라인|top-?line|기술\s*이전|승인|허가`)

	extendedPattern = regexp.MustCompile(`(?i)FDA|EMA|PMDA|식약처|MFDS|임상\s*[123]\s*상|1\s*차\s*(?:평가|유효성)\s*변수|통계적\s*(?:으로)?\s*유의|p\s*[<=＜]\s*0?\.\d+|톱라인|탑라인|CSR|로봇|자동화|휴머노이드|인공\s*지능|\bAI\b|\bCES\b|혁신상`)

	outcomePattern = regexp.MustCompile(`결과|성공|승인|허가|확보`)

	cautionPattern = regexp.MustCompile(`(?i)연기|지연|철회|postpone|delay`)

	secondaryPattern = regexp.MustCompile(`공급|계약|수주|임상|승인|허가|특허|인수|투자\s*유치|소각|무상|수출|양산`)

	spikePattern = regexp.MustCompile(`(?i)기술\s*이전|라이선스|FDA\s*(?:승인|허가)|임상\s*3\s*상|CSR|샌드박스|결과\s*보고서|대규모\s*(?:계약|수주)|무상\s*증자|자사주\s*(?:소각|매입)`)
)

var scoreRules = []scoreRule{
	{pattern: regexp.MustCompile(`(?i)임상\s*[23]\s*상|CSR|결과\s*보고서`), points: 3},
	{pattern: regexp.MustCompile(`(?i)FDA\s*(?:승인|허가)|기술\s*이전|라이선스`), points: 3},
	{
		pattern: regexp.MustCompile(`(?:대규모|글로벌).*(?:계약|수주|공급)`), points: 3,
		fallback: regexp.MustCompile(`계약|수주|공급`), fallbackPoints: 2,
	},
	{pattern: regexp.MustCompile(`무상\s*증자|자사주\s*(?:소각|매입)|자기\s*주식`), points: 4},
	{pattern: regexp.MustCompile(`로봇|탈모`), points: 1},
}

var hotKeywordRules = []keywordRule{
	{"임상 3상 결과", regexp.MustCompile(`임상\s*3\s*상.*(?:결과|성공)`)},
	{"임상 2상 결과", regexp.MustCompile(`임상\s*2\s*상.*(?:결과|성공)`)},
	{"CSR", regexp.MustCompile(`(?i)CSR`)},
	{"샌드박스", regexp.MustCompile(`샌드박스`)},
	{"FDA 승인", regexp.MustCompile(`(?i)FDA\s*(?:승인|허가)`)},
	{"기술이전", regexp.MustCompile(`기술\s*이전`)},
	{"라이선스", regexp.MustCompile(`(?i)라이선스|L/O`)},
	{"무상증자", regexp.MustCompile(`무상\s*증자`)},
	{"자사주 소각", regexp.MustCompile(`자사주\s*소각|자기\s*주식\s*소각`)},
	{"대규모 계약", regexp.MustCompile(`(?:대규모|글로벌).*(?:계약|수주|공급)`)},
	{"공급계약", regexp.MustCompile(`공급\s*계약|수주`)},
	{"로봇", regexp.MustCompile(`로봇|휴머노이드`)},
	{"제3자배정 증자", regexp.MustCompile(`제\s*3\s*자\s*배정`)},
	{"최대주주 변경", regexp.MustCompile(`최대\s*주주\s*(?:의\s*)?변경`)},
}

// FallbackKeyword labels a hot disclosure that no keyword rule recognises.
const FallbackKeyword = "기타 호재"
