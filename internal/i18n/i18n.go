package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLocale 默认语言
	DefaultLocale = "pt-BR"
)

var supportedLocales = map[string]bool{
	"pt-BR": true,
	"en-US": true,
}

// ResolveLocale 从请求解析语言
// 优先级：query 参数 lang > Accept-Language 头 > 默认语言。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := normalizeLocale(candidate); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

// T 按语言翻译文案 key，缺失时回退默认语言，再缺失时返回 key 本身
func T(locale, key string) string {
	if messages, ok := catalog[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if messages, ok := catalog[DefaultLocale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 翻译含占位符的文案 key 并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "pt"):
		return "pt-BR"
	case strings.HasPrefix(lower, "en"):
		return "en-US"
	}
	if supportedLocales[trimmed] {
		return trimmed
	}
	return ""
}

var catalog = map[string]map[string]string{
	"pt-BR": {
		"error.bad_request":              "Requisição inválida",
		"error.unauthorized":             "Não autorizado",
		"error.forbidden":                "Sem permissão para esta operação",
		"error.too_many_requests":        "Muitas requisições, tente novamente em instantes",
		"error.rate_limited":             "Muitas requisições, tente novamente em %d segundos",
		"error.rate_limit_unavailable":   "Serviço de limitação indisponível",
		"error.order_not_found":          "Pedido não encontrado",
		"error.order_item_invalid":       "Itens do pedido inválidos",
		"error.order_fetch_failed":       "Falha ao consultar o pedido",
		"error.order_create_failed":      "Falha ao criar o pedido",
		"error.order_status_invalid":     "Status de pedido inválido",
		"error.order_transition_denied":  "Transição de status não permitida",
		"error.order_status_conflict":    "O pedido foi alterado por outra operação",
		"error.order_already_terminal":   "O pedido já está em estado final",
		"error.order_total_below_min":    "Valor mínimo do pedido não atingido",
		"error.delivery_pin_invalid":     "PIN de entrega incorreto",
		"error.delivery_pin_blocked":     "Confirmação bloqueada por excesso de tentativas",
		"error.delivery_proof_required":  "Comprovante de entrega obrigatório",
		"error.menu_item_not_found":      "Item do cardápio não encontrado",
		"error.ingredient_not_found":     "Ingrediente não encontrado",
		"error.stock_amount_invalid":     "Quantidade de estoque inválida",
		"error.stock_fetch_failed":       "Falha ao consultar o estoque",
		"error.referral_code_not_found":  "Código de indicação não encontrado",
		"error.referral_code_inactive":   "Código de indicação inativo",
		"error.referral_code_expired":    "Código de indicação expirado",
		"error.referral_self_referral":   "Não é possível usar o próprio código",
		"error.referral_already_redeemed": "Código de indicação já utilizado",
		"error.referral_issue_failed":    "Falha ao gerar código de indicação",
		"error.wallet_not_found":         "Carteira não encontrada",
		"error.wallet_insufficient":      "Saldo de cashback insuficiente",
		"error.wallet_fetch_failed":      "Falha ao consultar a carteira",
		"error.audit_fetch_failed":       "Falha ao consultar os registros de auditoria",
		"error.staff_not_found":          "Funcionário não encontrado",
		"error.staff_fetch_failed":       "Falha ao consultar desempenho",
		"error.authz_role_invalid":       "Papel de acesso inválido",
		"error.authz_update_failed":      "Falha ao atualizar permissões",
		"error.authz_fetch_failed":       "Falha ao consultar permissões",
	},
	"en-US": {
		"error.bad_request":              "Invalid request",
		"error.unauthorized":             "Unauthorized",
		"error.forbidden":                "Operation not allowed",
		"error.too_many_requests":        "Too many requests, try again shortly",
		"error.rate_limited":             "Too many requests, try again in %d seconds",
		"error.rate_limit_unavailable":   "Rate limiting service unavailable",
		"error.order_not_found":          "Order not found",
		"error.order_item_invalid":       "Invalid order items",
		"error.order_fetch_failed":       "Failed to fetch order",
		"error.order_create_failed":      "Failed to create order",
		"error.order_status_invalid":     "Invalid order status",
		"error.order_transition_denied":  "Status transition not allowed",
		"error.order_status_conflict":    "Order was modified by another operation",
		"error.order_already_terminal":   "Order is already in a final state",
		"error.order_total_below_min":    "Order total below the minimum",
		"error.delivery_pin_invalid":     "Incorrect delivery PIN",
		"error.delivery_pin_blocked":     "Confirmation blocked after too many attempts",
		"error.delivery_proof_required":  "Delivery proof required",
		"error.menu_item_not_found":      "Menu item not found",
		"error.ingredient_not_found":     "Ingredient not found",
		"error.stock_amount_invalid":     "Invalid stock amount",
		"error.stock_fetch_failed":       "Failed to fetch stock",
		"error.referral_code_not_found":  "Referral code not found",
		"error.referral_code_inactive":   "Referral code inactive",
		"error.referral_code_expired":    "Referral code expired",
		"error.referral_self_referral":   "Cannot redeem your own code",
		"error.referral_already_redeemed": "Referral code already redeemed",
		"error.referral_issue_failed":    "Failed to issue referral code",
		"error.wallet_not_found":         "Wallet not found",
		"error.wallet_insufficient":      "Insufficient cashback balance",
		"error.wallet_fetch_failed":      "Failed to fetch wallet",
		"error.audit_fetch_failed":       "Failed to fetch audit logs",
		"error.staff_not_found":          "Staff member not found",
		"error.staff_fetch_failed":       "Failed to fetch performance",
		"error.authz_role_invalid":       "Invalid access role",
		"error.authz_update_failed":      "Failed to update permissions",
		"error.authz_fetch_failed":       "Failed to fetch permissions",
	},
}
