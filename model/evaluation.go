package model

import (
	"time"
)

// Evaluation categories, in the order they appear on the form.
const (
	CategoryInfraestrutura             = "infraestrutura"
	CategoryEquipamentos               = "equipamentos"
	CategoryBiblioteca                 = "biblioteca"
	CategorySuporteMercado             = "suporte_mercado"
	CategoryLocalizacao                = "localizacao"
	CategoryAcessibilidade             = "acessibilidade"
	CategoryDirecao                    = "direcao"
	CategoryCoordenacao                = "coordenacao"
	CategoryDidatica                   = "didatica"
	CategoryDinamicaProfessores        = "dinamica_professores"
	CategoryDisponibilidadeProfessores = "disponibilidade_professores"
	CategoryConteudo                   = "conteudo"
)

// Categories lists every canonical evaluation category key.
var Categories = []string{
	CategoryInfraestrutura,
	CategoryEquipamentos,
	CategoryBiblioteca,
	CategorySuporteMercado,
	CategoryLocalizacao,
	CategoryAcessibilidade,
	CategoryDirecao,
	CategoryCoordenacao,
	CategoryDidatica,
	CategoryDinamicaProfessores,
	CategoryDisponibilidadeProfessores,
	CategoryConteudo,
}

// LegacyQuestionKey maps the numeric question ids still sent by older
// frontend builds to canonical category keys.
var LegacyQuestionKey = map[string]string{
	"101": CategoryInfraestrutura,
	"102": CategoryEquipamentos,
	"103": CategoryBiblioteca,
	"104": CategorySuporteMercado,
	"105": CategoryLocalizacao,
	"106": CategoryAcessibilidade,
	"107": CategoryDirecao,
	"108": CategoryCoordenacao,
	"109": CategoryDidatica,
	"110": CategoryDinamicaProfessores,
	"111": CategoryDisponibilidadeProfessores,
	"112": CategoryConteudo,
}

// Evaluation is one submission by a user about an institution/course pair.
// Per-category columns mirror the legacy schema so the analysis engine can
// consume rows as-is; FinalScore is the mean of the nota columns present.
type Evaluation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"column:usuario_id;not null;index" json:"usuario_id"`
	InstitutionID uint      `gorm:"column:instituicao_id;not null;index" json:"instituicao_id"`
	CourseID      uint      `gorm:"column:curso_id;not null;index" json:"curso_id"`
	FinalScore    float64   `gorm:"column:media_final" json:"media_final"`
	CreatedAt     time.Time `gorm:"column:criado_em;index" json:"criado_em"`

	NotaInfraestrutura             *float64 `gorm:"column:nota_infraestrutura" json:"nota_infraestrutura,omitempty"`
	NotaEquipamentos               *float64 `gorm:"column:nota_equipamentos" json:"nota_equipamentos,omitempty"`
	NotaBiblioteca                 *float64 `gorm:"column:nota_biblioteca" json:"nota_biblioteca,omitempty"`
	NotaSuporteMercado             *float64 `gorm:"column:nota_suporte_mercado" json:"nota_suporte_mercado,omitempty"`
	NotaLocalizacao                *float64 `gorm:"column:nota_localizacao" json:"nota_localizacao,omitempty"`
	NotaAcessibilidade             *float64 `gorm:"column:nota_acessibilidade" json:"nota_acessibilidade,omitempty"`
	NotaDirecao                    *float64 `gorm:"column:nota_direcao" json:"nota_direcao,omitempty"`
	NotaCoordenacao                *float64 `gorm:"column:nota_coordenacao" json:"nota_coordenacao,omitempty"`
	NotaDidatica                   *float64 `gorm:"column:nota_didatica" json:"nota_didatica,omitempty"`
	NotaDinamicaProfessores        *float64 `gorm:"column:nota_dinamica_professores" json:"nota_dinamica_professores,omitempty"`
	NotaDisponibilidadeProfessores *float64 `gorm:"column:nota_disponibilidade_professores" json:"nota_disponibilidade_professores,omitempty"`
	NotaConteudo                   *float64 `gorm:"column:nota_conteudo" json:"nota_conteudo,omitempty"`

	ComentarioInfraestrutura             *string `gorm:"column:comentario_infraestrutura;type:text" json:"comentario_infraestrutura,omitempty"`
	ComentarioEquipamentos               *string `gorm:"column:comentario_equipamentos;type:text" json:"comentario_equipamentos,omitempty"`
	ComentarioBiblioteca                 *string `gorm:"column:comentario_biblioteca;type:text" json:"comentario_biblioteca,omitempty"`
	ComentarioSuporteMercado             *string `gorm:"column:comentario_suporte_mercado;type:text" json:"comentario_suporte_mercado,omitempty"`
	ComentarioLocalizacao                *string `gorm:"column:comentario_localizacao;type:text" json:"comentario_localizacao,omitempty"`
	ComentarioAcessibilidade             *string `gorm:"column:comentario_acessibilidade;type:text" json:"comentario_acessibilidade,omitempty"`
	ComentarioDirecao                    *string `gorm:"column:comentario_direcao;type:text" json:"comentario_direcao,omitempty"`
	ComentarioCoordenacao                *string `gorm:"column:comentario_coordenacao;type:text" json:"comentario_coordenacao,omitempty"`
	ComentarioDidatica                   *string `gorm:"column:comentario_didatica;type:text" json:"comentario_didatica,omitempty"`
	ComentarioDinamicaProfessores        *string `gorm:"column:comentario_dinamica_professores;type:text" json:"comentario_dinamica_professores,omitempty"`
	ComentarioDisponibilidadeProfessores *string `gorm:"column:comentario_disponibilidade_professores;type:text" json:"comentario_disponibilidade_professores,omitempty"`
	ComentarioConteudo                   *string `gorm:"column:comentario_conteudo;type:text" json:"comentario_conteudo,omitempty"`
}

// TableName keeps the legacy schema name
func (Evaluation) TableName() string {
	return "Avaliacoes"
}

func (e *Evaluation) scoreField(category string) **float64 {
	switch category {
	case CategoryInfraestrutura:
		return &e.NotaInfraestrutura
	case CategoryEquipamentos:
		return &e.NotaEquipamentos
	case CategoryBiblioteca:
		return &e.NotaBiblioteca
	case CategorySuporteMercado:
		return &e.NotaSuporteMercado
	case CategoryLocalizacao:
		return &e.NotaLocalizacao
	case CategoryAcessibilidade:
		return &e.NotaAcessibilidade
	case CategoryDirecao:
		return &e.NotaDirecao
	case CategoryCoordenacao:
		return &e.NotaCoordenacao
	case CategoryDidatica:
		return &e.NotaDidatica
	case CategoryDinamicaProfessores:
		return &e.NotaDinamicaProfessores
	case CategoryDisponibilidadeProfessores:
		return &e.NotaDisponibilidadeProfessores
	case CategoryConteudo:
		return &e.NotaConteudo
	}
	return nil
}

func (e *Evaluation) commentField(category string) **string {
	switch category {
	case CategoryInfraestrutura:
		return &e.ComentarioInfraestrutura
	case CategoryEquipamentos:
		return &e.ComentarioEquipamentos
	case CategoryBiblioteca:
		return &e.ComentarioBiblioteca
	case CategorySuporteMercado:
		return &e.ComentarioSuporteMercado
	case CategoryLocalizacao:
		return &e.ComentarioLocalizacao
	case CategoryAcessibilidade:
		return &e.ComentarioAcessibilidade
	case CategoryDirecao:
		return &e.ComentarioDirecao
	case CategoryCoordenacao:
		return &e.ComentarioCoordenacao
	case CategoryDidatica:
		return &e.ComentarioDidatica
	case CategoryDinamicaProfessores:
		return &e.ComentarioDinamicaProfessores
	case CategoryDisponibilidadeProfessores:
		return &e.ComentarioDisponibilidadeProfessores
	case CategoryConteudo:
		return &e.ComentarioConteudo
	}
	return nil
}

// SetScore stores a nota value for a canonical category. Returns false for
// unknown categories.
func (e *Evaluation) SetScore(category string, value float64) bool {
	field := e.scoreField(category)
	if field == nil {
		return false
	}
	*field = &value
	return true
}

// SetComment stores a comentario value for a canonical category. Returns
// false for unknown categories.
func (e *Evaluation) SetComment(category, value string) bool {
	field := e.commentField(category)
	if field == nil {
		return false
	}
	*field = &value
	return true
}

// Scores returns the nota values present on this evaluation, keyed by
// canonical category.
func (e *Evaluation) Scores() map[string]float64 {
	scores := make(map[string]float64)
	for _, cat := range Categories {
		if field := e.scoreField(cat); field != nil && *field != nil {
			scores[cat] = **field
		}
	}
	return scores
}

// Comments returns the comentario values present on this evaluation, keyed
// by canonical category.
func (e *Evaluation) Comments() map[string]string {
	comments := make(map[string]string)
	for _, cat := range Categories {
		if field := e.commentField(cat); field != nil && *field != nil {
			comments[cat] = **field
		}
	}
	return comments
}

// EvaluationAnswer is the per-question breakdown of an evaluation; one row
// per answered category, holding the nota and/or the free-text comment.
type EvaluationAnswer struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	EvaluationID uint     `gorm:"column:avaliacao_id;not null;index" json:"avaliacao_id"`
	QuestionKey  string   `gorm:"column:question_key;type:varchar(64);not null" json:"question_key"`
	Score        *float64 `gorm:"column:nota" json:"nota"`
	Comment      *string  `gorm:"column:comentario;type:text" json:"comentario"`
}

// TableName keeps the legacy schema name
func (EvaluationAnswer) TableName() string {
	return "AvaliacaoRespostas"
}
