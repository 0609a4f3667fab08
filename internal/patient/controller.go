package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/catalog"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/rowstore"
	"github.com/integradaneuropsicologia/sistemadeavaliacao/internal/util"
)

// Mensagens exibidas na interface.
const (
	MsgFound        = "Cadastro encontrado."
	MsgNotFound     = "CPF sem cadastro. Preencha os dados e selecione os testes para cadastrar."
	MsgCreated      = "Cadastro criado com sucesso."
	MsgUpdated      = "Cadastro atualizado."
	MsgUpdatedTests = "Cadastro atualizado (alterações de testes aplicadas)."
)

// CatalogSource entrega o retrato atual do catálogo.
type CatalogSource interface {
	Load(ctx context.Context) (catalog.Catalog, error)
}

// Form reúne os campos editáveis do cadastro.
type Form struct {
	CPF            string `json:"cpf"`
	Nome           string `json:"nome"`
	DataNascimento string `json:"data_nascimento"`
	Email          string `json:"email"`
	WhatsApp       string `json:"whatsapp"`
}

// LookupResult descreve o estado após a busca por CPF.
type LookupResult struct {
	Found   bool    `json:"found"`
	Mode    Mode    `json:"mode"`
	Patient *Record `json:"patient,omitempty"`
	Form    Form    `json:"form"`
	Message string  `json:"message"`
}

// SaveInput traz o formulário e as marcações da grade.
type SaveInput struct {
	Form      Form     `json:"form"`
	Authorize []string `json:"authorize"`
	Remove    []string `json:"remove"`
}

// Outcome distingue os resultados bem-sucedidos de Save.
type Outcome string

const (
	OutcomeCreated            Outcome = "created"
	OutcomeUpdatedWithChanges Outcome = "updated_with_changes"
	OutcomeUpdated            Outcome = "updated"
)

// SaveResult é o retorno de Save.
type SaveResult struct {
	Outcome Outcome       `json:"outcome"`
	Message string        `json:"message"`
	Lookup  *LookupResult `json:"lookup,omitempty"`
}

// Controller orquestra busca, criação e atualização de cadastros.
type Controller struct {
	store   rowstore.Store
	table   rowstore.Table
	catalog CatalogSource
	logger  zerolog.Logger
	now     func() time.Time
}

// NewController cria o controlador sobre a aba de pacientes.
func NewController(store rowstore.Store, table rowstore.Table, cat CatalogSource, logger zerolog.Logger) *Controller {
	return &Controller{store: store, table: table, catalog: cat, logger: logger, now: time.Now}
}

// Lookup busca o cadastro pelo CPF e atualiza a sessão. CPF inválido não chega ao armazenamento.
func (c *Controller) Lookup(ctx context.Context, s *Session, rawCPF string) (*LookupResult, error) {
	cpf := util.OnlyDigits(rawCPF)
	if cpf == "" {
		return nil, warnf("cpf", "Digite um CPF.")
	}
	if !util.ValidateCPF(cpf) {
		return nil, errf("cpf", "CPF inválido.")
	}

	rows, err := c.store.Search(ctx, c.table, map[string]string{ColCPF: cpf})
	if err != nil {
		return nil, err
	}

	s.CPF = cpf
	s.UpdatedAt = c.now()

	if len(rows) == 0 {
		s.Mode = ModeCreate
		s.Patient = nil
		return &LookupResult{
			Mode:    ModeCreate,
			Form:    Form{CPF: cpf},
			Message: MsgNotFound,
		}, nil
	}

	rec := FromRow(rows[0])
	s.Mode = ModeUpdate
	s.Patient = rec

	return &LookupResult{
		Found:   true,
		Mode:    ModeUpdate,
		Patient: rec,
		Form:    formFromRecord(cpf, rec),
		Message: MsgFound,
	}, nil
}

// Save valida o formulário, confirma o modo consultando o CPF de novo e grava.
//
// A nova consulta antes da escrita só reduz a chance de duplicar um cadastro
// criado por outra sessão; não é transacional.
func (c *Controller) Save(ctx context.Context, s *Session, in SaveInput) (*SaveResult, error) {
	form, err := c.validate(in.Form)
	if err != nil {
		return nil, err
	}

	cat, err := c.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	if s.CPF != form.CPF {
		s.Reset()
		s.CPF = form.CPF
	}

	existing, err := c.store.Search(ctx, c.table, map[string]string{ColCPF: form.CPF})
	if err != nil {
		c.logger.Warn().Err(err).Msg("salvar: reconsulta do CPF falhou, mantendo modo atual")
	} else if len(existing) > 0 {
		s.Patient = FromRow(existing[0])
		s.Mode = ModeUpdate
	}
	if s.Mode == ModeUpdate && s.Patient == nil {
		s.Mode = ModeCreate
	}

	if s.Mode == ModeCreate {
		return c.create(ctx, s, cat, form, in.Authorize)
	}
	return c.update(ctx, s, cat, form, in)
}

func (c *Controller) create(ctx context.Context, s *Session, cat catalog.Catalog, form Form, authorize []string) (*SaveResult, error) {
	row := rowstore.Row{
		ColNome:           form.Nome,
		ColCPF:            form.CPF,
		ColDataNascimento: form.DataNascimento,
		ColCreatedAt:      util.LocalTimestamp(c.now()),
		ColEmail:          form.Email,
		ColWhatsApp:       form.WhatsApp,
	}

	checked := toSet(authorize)
	for _, inst := range cat.Items() {
		_, ok := checked[inst.Code]
		row[inst.Code] = flag(ok)
	}

	if err := c.store.Create(ctx, c.table, row); err != nil {
		return nil, err
	}

	rec := FromRow(row)
	s.Mode = ModeUpdate
	s.Patient = rec
	s.UpdatedAt = c.now()

	c.logger.Info().Int("autorizados", len(checked)).Msg("cadastro de paciente criado")

	return &SaveResult{
		Outcome: OutcomeCreated,
		Message: MsgCreated,
		Lookup: &LookupResult{
			Found:   true,
			Mode:    ModeUpdate,
			Patient: rec,
			Form:    formFromRecord(form.CPF, rec),
			Message: MsgCreated,
		},
	}, nil
}

func (c *Controller) update(ctx context.Context, s *Session, cat catalog.Catalog, form Form, in SaveInput) (*SaveResult, error) {
	current := s.Patient
	patch := rowstore.Row{}

	if form.Nome != current.Nome {
		patch[ColNome] = form.Nome
	}
	if form.DataNascimento != current.DataNascimento {
		patch[ColDataNascimento] = form.DataNascimento
	}
	if form.Email != current.Email {
		patch[ColEmail] = form.Email
	}
	if form.WhatsApp != current.WhatsApp {
		patch[ColWhatsApp] = form.WhatsApp
	}

	changedTests := false
	authorize := toSet(in.Authorize)
	remove := toSet(in.Remove)

	for _, inst := range cat.Items() {
		if _, ok := authorize[inst.Code]; ok && !current.Flags(inst.Code).Authorized {
			patch[inst.Code] = flagSim
			changedTests = true
		}
	}
	for _, inst := range cat.Items() {
		if catalog.Classify(inst, current) != catalog.StatusJa {
			continue
		}
		if _, ok := remove[inst.Code]; ok {
			patch[inst.Code] = flagNao
			patch[CompletedColumn(inst.Code)] = ""
			changedTests = true
		}
	}

	if len(patch) > 0 {
		if err := c.store.PatchBy(ctx, c.table, ColCPF, form.CPF, patch); err != nil {
			return nil, err
		}
	}

	c.logger.Info().Int("campos", len(patch)).Bool("testes_alterados", changedTests).Msg("cadastro de paciente atualizado")

	result := &SaveResult{Outcome: OutcomeUpdated, Message: MsgUpdated}
	if changedTests {
		result.Outcome = OutcomeUpdatedWithChanges
		result.Message = MsgUpdatedTests
	}

	lookup, err := c.Lookup(ctx, s, form.CPF)
	if err != nil {
		return nil, fmt.Errorf("recarregar cadastro: %w", err)
	}
	result.Lookup = lookup
	return result, nil
}

// validate aplica as regras na ordem exibida ao usuário e devolve o formulário normalizado.
func (c *Controller) validate(in Form) (Form, error) {
	out := Form{
		Nome:           strings.TrimSpace(in.Nome),
		CPF:            util.OnlyDigits(in.CPF),
		DataNascimento: strings.TrimSpace(in.DataNascimento),
		Email:          strings.TrimSpace(in.Email),
	}

	if out.Nome == "" {
		return Form{}, warnf("nome", "Informe o nome.")
	}
	if !util.ValidateCPF(out.CPF) {
		return Form{}, errf("cpf", "CPF inválido.")
	}
	if out.DataNascimento == "" {
		return Form{}, warnf("data_nascimento", "Informe a data de nascimento.")
	}
	if _, err := time.Parse("2006-01-02", firstN(out.DataNascimento, 10)); err != nil {
		return Form{}, warnf("data_nascimento", "Data de nascimento inválida.")
	}
	out.DataNascimento = firstN(out.DataNascimento, 10)
	if out.Email != "" && !util.IsValidEmail(out.Email) {
		return Form{}, warnf("email", "E-mail inválido.")
	}

	out.WhatsApp = util.NormalizePhone(in.WhatsApp)
	if strings.TrimSpace(in.WhatsApp) != "" && out.WhatsApp == "" {
		return Form{}, warnf("whatsapp", "WhatsApp inválido. Use DDD + número.")
	}
	return out, nil
}

func formFromRecord(cpf string, rec *Record) Form {
	return Form{
		CPF:            cpf,
		Nome:           rec.Nome,
		DataNascimento: firstN(rec.DataNascimento, 10),
		Email:          rec.Email,
		WhatsApp:       util.FormatPhoneDisplay(rec.WhatsApp),
	}
}

func toSet(codes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}
