package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

// maxBodyBytes limita o tamanho dos payloads JSON aceitos.
const maxBodyBytes = 1 << 20

// Handle processa erros de serviço e envia respostas padronizadas ao cliente.
// Em sucesso escreve data como JSON (ou apenas o status, se data for nil).
func Handle(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err == nil {
		log.Debug("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})
		JSON(w, log, successStatus, data)
		return
	}

	Error(w, r, log, err)
}

// JSON escreve o corpo com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
		log.Error("Falha ao codificar JSON de resposta", jsonErr)
	}
}

// Error traduz err para o status HTTP e o corpo domain.ErrorResponse.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		// O log recebe a causa raiz; o cliente só vê a mensagem genérica.
		var internalErr *apperror.InternalError
		if errors.As(err, &internalErr) && internalErr.Err != nil {
			log.Error(fmt.Sprintf("Erro de Servidor: %s (%s %s)", category, r.Method, r.URL.Path), internalErr.Err)
		} else {
			log.Error(fmt.Sprintf("Erro de Servidor: %s (%s %s)", category, r.Method, r.URL.Path), err)
		}
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// DecodeJSON lê o corpo da requisição em v.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperror.NewValidationError("Corpo da requisição ausente.")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewValidationError("Corpo da requisição ausente.")
		}
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}
