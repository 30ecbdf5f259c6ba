package domain

// PageSize is the number of questions shown per index page.
const PageSize = 5

type QuestionPage struct {
	Questions  []*Question
	Number     int
	Size       int
	TotalCount int
}

func (p *QuestionPage) TotalPages() int {
	if p.TotalCount == 0 || p.Size <= 0 {
		return 1
	}
	return (p.TotalCount + p.Size - 1) / p.Size
}

func (p *QuestionPage) HasPrevious() bool {
	return p.Number > 1
}

func (p *QuestionPage) HasNext() bool {
	return p.Number < p.TotalPages()
}

func (p *QuestionPage) PreviousNumber() int {
	return p.Number - 1
}

func (p *QuestionPage) NextNumber() int {
	return p.Number + 1
}
