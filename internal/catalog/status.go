package catalog

// Status é a situação de um instrumento para o paciente corrente.
type Status string

const (
	StatusCadastrar  Status = "cadastrar"
	StatusJa         Status = "ja"
	StatusPreenchido Status = "preenchido"
)

// Flags guarda as marcações de um instrumento no cadastro do paciente.
type Flags struct {
	Authorized bool `json:"authorized"`
	Completed  bool `json:"completed"`
}

// FlagSource expõe as marcações por código de instrumento.
type FlagSource interface {
	Flags(code string) Flags
}

// Classify calcula o status. Sem paciente, tudo fica em "cadastrar".
// Autorização e conclusão são lidas de forma independente.
func Classify(inst Instrument, patient FlagSource) Status {
	if patient == nil {
		return StatusCadastrar
	}
	f := patient.Flags(inst.Code)
	switch {
	case f.Authorized && f.Completed:
		return StatusPreenchido
	case f.Authorized:
		return StatusJa
	}
	return StatusCadastrar
}
