package sqlinline

// QSelectIntegrationToken reads the credential stored for a provider
// ($1: provider). Blank tokens count as absent.
const QSelectIntegrationToken = `--sql 3c0b8e5a-61d2-4f0e-b7a4-9d25e6f1c803
select token
  from integration_tokens
 where provider = $1
   and btrim(token) <> '';
`

// QUpsertIntegrationToken stores a credential ($1: provider, $2: token,
// $3: properties jsonb), replacing the previous one.
const QUpsertIntegrationToken = `--sql b91e47d6-2c8a-4a53-8e0f-61f7a2c95d14
insert into integration_tokens (id, provider, token, properties)
values (gen_random_uuid(), $1, $2, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update
   set token      = excluded.token,
       properties = excluded.properties,
       updated_at = now();
`
