package llm

import (
	"fmt"
	"strings"
)

// ExtractionPrompt instructs the vision model to read a business registration certificate.
const ExtractionPrompt = `당신은 대한민국 사업자등록증 이미지 분석 전문가입니다.

사업자등록증 이미지에서 다음 정보를 추출하세요:
1. "상호명" - 사업체 이름
2. "사업자주소" - 사업장 소재지 전체 주소
3. "사업자등록번호" - 10자리 사업자번호
4. "대표자명" - 대표자 성명

중요 규칙:
- 반드시 JSON 형식으로만 응답하세요
- 다른 설명이나 추가 텍스트 없이 JSON만 반환하세요
- 찾을 수 없는 정보는 빈 문자열("")로 표시하세요
- 사업자등록번호는 반드시 "XXX-XX-XXXXX" 형식으로 변환하세요
- 주소는 발견된 전체 주소를 그대로 포함하세요

응답 예시:
{
  "상호명": "주식회사 샘플",
  "사업자주소": "서울특별시 강남구 테헤란로 123 샘플빌딩 5층",
  "사업자등록번호": "123-45-67890",
  "대표자명": "홍길동"
}

이 사업자등록증 이미지를 분석해주세요.`

const reviewChecklist = `검토 사항:
- 오타나 잘못된 문자 (예: ㅣ → l, ㅇ → o, 0 → O 등)
- 누락된 문자나 불완전한 단어
- 사업자등록번호 형식 (xxx-xx-xxxxx)
- 주소 정보의 완성도`

// ReviewInput is the subset of a record the reviewer sees.
type ReviewInput struct {
	CompanyName        string
	RepresentativeName string
	Address            string
	RegistrationNumber string
}

// BuildReviewPrompt asks the text model to check a single record.
func BuildReviewPrompt(in ReviewInput) string {
	var b strings.Builder
	b.WriteString("아래는 사업자등록증에서 추출한 데이터입니다. 다음 사항을 검토하고 수정사항을 제안해주세요:\n\n")
	fmt.Fprintf(&b, "1. 상호명: %s\n2. 대표자명: %s\n3. 사업자주소: %s\n4. 사업자등록번호: %s\n\n",
		in.CompanyName, in.RepresentativeName, in.Address, in.RegistrationNumber)
	b.WriteString(reviewChecklist)
	b.WriteString(`

응답 형식:
{
  "needsCorrection": true/false,
  "correctedData": {
    "상호명": "수정된 상호명",
    "대표자명": "수정된 대표자명",
    "사업자주소": "수정된 주소",
    "사업자등록번호": "수정된 등록번호"
  },
  "corrections": [
    {"field": "필드명", "original": "원본 데이터", "corrected": "수정된 데이터", "reason": "수정 이유"}
  ]
}

반드시 JSON 형식으로만 응답하세요.`)
	return b.String()
}

// BuildBatchReviewPrompt asks the text model to check several records in one call.
// Indexes in the reply are zero based and follow the order given here.
func BuildBatchReviewPrompt(in []ReviewInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "아래는 사업자등록증에서 추출한 %d개의 데이터입니다.\n모든 데이터를 한 번에 검토하고 수정사항을 제안해주세요:\n\n", len(in))
	for i, r := range in {
		fmt.Fprintf(&b, "%d. 상호명: %s\n   대표자명: %s\n   사업자주소: %s\n   사업자등록번호: %s\n\n",
			i+1, r.CompanyName, r.RepresentativeName, r.Address, r.RegistrationNumber)
	}
	b.WriteString(reviewChecklist)
	fmt.Fprintf(&b, `

응답 형식 (correctedData는 입력과 같은 순서로 정확히 %d개):
{
  "correctedData": [
    {"상호명": "수정된 상호명", "대표자명": "수정된 대표자명", "사업자주소": "수정된 주소", "사업자등록번호": "수정된 등록번호"}
  ],
  "corrections": [
    {"index": 0, "field": "필드명", "original": "원본 데이터", "corrected": "수정된 데이터", "reason": "수정 이유"}
  ]
}

반드시 JSON 형식으로만 응답하세요.`, len(in))
	return b.String()
}

// BuildContactPrompt asks for a business's phone number and opening hours.
func BuildContactPrompt(companyName, address string) string {
	return fmt.Sprintf(`다음 업체의 전화번호와 영업시간을 네이버나 구글에서 검색해서 찾아주세요:

업체명: %s
주소: %s
지역: %s

다음 정보를 JSON 형식으로 제공해주세요:
- phoneNumber: 전화번호 (없으면 빈 문자열)
- openTime: 영업시간 (없으면 빈 문자열)

응답 예시:
{
  "phoneNumber": "031-123-4567",
  "openTime": "09:00-22:00"
}

반드시 JSON 형식으로만 응답하고, 다른 설명은 포함하지 마세요.`, companyName, address, RegionFromAddress(address))
}

// RegionFromAddress picks a short locality name from a Korean address:
// the third token without its 읍/면/동 suffix, else the second without 군/시/구.
func RegionFromAddress(address string) string {
	parts := strings.Fields(address)
	switch {
	case len(parts) >= 3:
		return trimAnySuffix(parts[2], "읍", "면", "동")
	case len(parts) == 2:
		return trimAnySuffix(parts[1], "군", "시", "구")
	case len(parts) == 1:
		return parts[0]
	}
	return ""
}

func trimAnySuffix(s string, suffixes ...string) string {
	for _, suf := range suffixes {
		if t := strings.TrimSuffix(s, suf); t != s && t != "" {
			return t
		}
	}
	return s
}
