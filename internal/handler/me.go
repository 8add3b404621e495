package handler

import (
	"net/http"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	sub, _ := r.Context().Value(SubCtxKey).(string)
	if sub != h.admin.Username {
		h.errorResponse(w, r, "用户不存在")
		return
	}

	h.successResponse(w, r, "获取个人信息成功", h.admin)
}
