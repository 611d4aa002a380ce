package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	results := h.search.Search(r.URL.Query().Get("q"), myInfo)
	h.successResponse(w, r, "搜索成功", results)
}
