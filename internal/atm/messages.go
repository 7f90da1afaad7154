package atm

import "fmt"

// messageID names a piece of display text.
type messageID int

const (
	msgWelcome messageID = iota
	msgCardInserted
	msgPromptPIN
	msgPromptDeposit
	msgPromptWithdraw
	msgPromptNewPIN
	msgPromptLanguage
	msgMainMenu
	msgCardEjected
	msgInvalidSelection
	msgPINLocked
	msgPINIncorrect
	msgPINInvalid
	msgDepositOK
	msgInvalidAmount
	msgWithdrawOK
	msgInsufficientFunds
	msgPINChanged
	msgNewPINInvalid
	msgLanguageSet
	msgLanguageInvalid
	msgBalance
	msgReportedStolen
	msgGoodbye
)

var catalogEnglish = map[messageID]string{
	msgWelcome:        "Please insert your card.",
	msgCardInserted:   "Card inserted. Please enter your PIN:",
	msgPromptPIN:      "Please enter your PIN:",
	msgPromptDeposit:  "Enter deposit amount:",
	msgPromptWithdraw: "Enter withdrawal amount:",
	msgPromptNewPIN:   "Enter new PIN:",
	msgPromptLanguage: "Enter language code. 1(English) 2(español):",
	msgMainMenu: "Main Menu:\n" +
		"L1: Check Balance\n" +
		"L2: Deposit\n" +
		"L3: Withdraw\n" +
		"L4: Change Language\n" +
		"R1: Change PIN\n" +
		"R2: Report Stolen Details\n" +
		"R3: Exit",
	msgCardEjected:       "Card ejected. Please insert your card.",
	msgInvalidSelection:  "Invalid selection.",
	msgPINLocked:         "Too many incorrect attempts. Card retained. Exiting...",
	msgPINIncorrect:      "Incorrect PIN. Please try again:",
	msgPINInvalid:        "Invalid PIN entry. Please try again:",
	msgDepositOK:         "Deposit successful. New balance: %d",
	msgInvalidAmount:     "Invalid amount. Please enter a valid number:",
	msgWithdrawOK:        "Please take your cash. New balance: %d",
	msgInsufficientFunds: "Insufficient funds.",
	msgPINChanged:        "PIN changed. Old PIN: %d New PIN: %d",
	msgNewPINInvalid:     "Invalid PIN. Please enter a valid number:",
	msgLanguageSet:       "Language set to %s",
	msgLanguageInvalid:   "Invalid language selection. Enter 1 or 2:",
	msgBalance:           "Your balance is: %d",
	msgReportedStolen:    "PIN and Card details reported stolen. Card is deactivated.",
	msgGoodbye:           "Thank you for using our ATM. Please take your card.",
}

var catalogSpanish = map[messageID]string{
	msgWelcome:        "Por favor inserte su tarjeta.",
	msgCardInserted:   "Tarjeta insertada. Ingrese su PIN:",
	msgPromptPIN:      "Ingrese su PIN:",
	msgPromptDeposit:  "Ingrese el monto del depósito:",
	msgPromptWithdraw: "Ingrese el monto del retiro:",
	msgPromptNewPIN:   "Ingrese el nuevo PIN:",
	msgPromptLanguage: "Ingrese el código de idioma. 1(English) 2(español):",
	msgMainMenu: "Menú Principal:\n" +
		"L1: Consultar Saldo\n" +
		"L2: Depositar\n" +
		"L3: Retirar\n" +
		"L4: Cambiar Idioma\n" +
		"R1: Cambiar PIN\n" +
		"R2: Reportar Robo\n" +
		"R3: Salir",
	msgCardEjected:       "Tarjeta expulsada. Por favor inserte su tarjeta.",
	msgInvalidSelection:  "Selección inválida.",
	msgPINLocked:         "Demasiados intentos incorrectos. Tarjeta retenida. Saliendo...",
	msgPINIncorrect:      "PIN incorrecto. Intente de nuevo:",
	msgPINInvalid:        "Entrada de PIN inválida. Intente de nuevo:",
	msgDepositOK:         "Depósito exitoso. Nuevo saldo: %d",
	msgInvalidAmount:     "Monto inválido. Ingrese un número válido:",
	msgWithdrawOK:        "Retire su efectivo. Nuevo saldo: %d",
	msgInsufficientFunds: "Fondos insuficientes.",
	msgPINChanged:        "PIN cambiado. PIN anterior: %d Nuevo PIN: %d",
	msgNewPINInvalid:     "PIN inválido. Ingrese un número válido:",
	msgLanguageSet:       "Idioma cambiado a %s",
	msgLanguageInvalid:   "Selección de idioma inválida. Ingrese 1 o 2:",
	msgBalance:           "Su saldo es: %d",
	msgReportedStolen:    "Datos de PIN y tarjeta reportados como robados. Tarjeta desactivada.",
	msgGoodbye:           "Gracias por usar nuestro cajero. Retire su tarjeta.",
}

// text renders a catalog entry in the given language
func text(lang Language, id messageID, args ...any) string {
	catalog := catalogEnglish
	if lang == Spanish {
		catalog = catalogSpanish
	}
	format, ok := catalog[id]
	if !ok {
		format = catalogEnglish[id]
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// promptFor returns the input prompt for a mode
func promptFor(lang Language, mode Mode) string {
	switch mode {
	case ModePINEntry:
		return text(lang, msgPromptPIN)
	case ModeDepositEntry:
		return text(lang, msgPromptDeposit)
	case ModeWithdrawEntry:
		return text(lang, msgPromptWithdraw)
	case ModeChangePINEntry:
		return text(lang, msgPromptNewPIN)
	case ModeLanguageEntry:
		return text(lang, msgPromptLanguage)
	case ModeMainMenu:
		return text(lang, msgMainMenu)
	default:
		return ""
	}
}
