package model

// ユーザー向けメッセージ。クライアントはブラジル向けのため文言はポルトガル語で統一する。
const (
	MsgUsernameExists       = "Usuário já existe"
	MsgUsernameInvalid      = "O nome de usuário deve ter 4-15 caracteres e conter apenas letras, números e underscore"
	MsgEmailExists          = "Email já registrado"
	MsgEmailInvalid         = "Email inválido"
	MsgCPFExists            = "CPF já registrado"
	MsgCPFInvalid           = "CPF deve estar no formato: 123.456.789-00"
	MsgCPFInvalidExternal   = "CPF inválido (não encontrado na base de dados)"
	MsgPasswordMismatch     = "As senhas não coincidem"
	MsgPasswordWeak         = "A senha deve conter pelo menos 8 caracteres, incluindo letras maiúsculas, minúsculas e números."
	MsgPasswordTooLong      = "A senha deve ter no máximo 72 bytes."
	MsgRegisterGeneric      = "Erro ao registrar usuário. Tente novamente mais tarde."
	MsgInvalidCredentials   = "Credenciais inválidas"
	MsgLoginRequired        = "Nome de usuário e senha são obrigatórios"
	MsgFieldRequired        = "Este campo é obrigatório."
	MsgAuthRequired         = "Autenticação necessária."
	MsgTokenInvalid         = "Token inválido ou expirado."
	MsgCurrentPasswordReq   = "A senha atual é obrigatória."
	MsgCurrentPasswordWrong = "A senha atual está incorreta."
	MsgUsernameRequired     = "O nome de usuário é obrigatório."
	MsgUserNotFound         = "Usuário não encontrado"
	MsgSelfFollow           = "Você não pode seguir a si mesmo"
	MsgPostNotFound         = "Publicação não encontrada"
	MsgNotPostAuthor        = "Você só pode alterar suas próprias publicações."
	MsgContentRequired      = "O conteúdo é obrigatório."
	MsgTitleTooLong         = "O título deve ter no máximo 200 caracteres."
	MsgUpstreamUnavailable  = "Serviço temporariamente indisponível"

	MsgFileRequired        = "O arquivo profile_picture é obrigatório."
	MsgFileTooLarge        = "O arquivo não pode exceder %s."
	MsgFileTypeNotAllowed  = "Apenas imagens JPEG, PNG, GIF e WebP são permitidas."
	MsgFileExtInvalid      = "Extensão de arquivo inválida."
	MsgFileExtMismatch     = "A extensão do arquivo não corresponde ao tipo de conteúdo."
	MsgFileContentMismatch = "O conteúdo do arquivo não corresponde a uma imagem válida."

	MsgInvalidBody       = "Corpo da requisição inválido."
	MsgFeedFormatInvalid = "Formato de feed inválido. Use rss ou atom."
)

// 成功時の detail メッセージ。%s には対象ユーザー名が入る。
const (
	MsgFollowCreated      = "Agora você segue %s"
	MsgFollowExisting     = "Você já segue %s"
	MsgUnfollowed         = "Você deixou de seguir %s"
	MsgNotFollowing       = "Você não seguia %s"
	MsgLiked              = "Você curtiu esta publicação"
	MsgAlreadyLiked       = "Você já curtiu esta publicação"
	MsgUnliked            = "Você descurtiu esta publicação"
	MsgNotLiked           = "Você não tinha curtido esta publicação"
	MsgAvatarUpdated      = "Foto de perfil atualizada com sucesso"
	MsgUsernameUpdated    = "Nome de usuário atualizado com sucesso"
	MsgCredentialsUpdated = "Email e/ou senha atualizados com sucesso"
)
