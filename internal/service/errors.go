package service

import "errors"

// Доменные ошибки бизнес-логики. Обработчики HTTP различают их
// через errors.Is и преобразуют в соответствующие статус-коды.
// Ошибки хранилища сюда не входят и пробрасываются как есть.
var (
	// ErrInvalidArgument — некорректные входные данные:
	// пустое имя, неизвестный тип счета, неположительная сумма
	ErrInvalidArgument = errors.New("некорректные параметры запроса")

	// ErrNotFound — счет не существует либо неактивен там,
	// где операция требует активный счет
	ErrNotFound = errors.New("счет не найден")

	// ErrInsufficientFunds — снятие или перевод превышает остаток
	ErrInsufficientFunds = errors.New("недостаточно средств на счете")
)
