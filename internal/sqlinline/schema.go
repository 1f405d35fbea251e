package sqlinline

// QCreateSchema creates the tables used by the service. It is idempotent.
const QCreateSchema = `--sql 90f3133e-676f-4f2f-8c00-5a17cdde2024
create table if not exists video_jobs (
    id            uuid primary key,
    user_id       text not null,
    business_name text not null,
    style         text not null default 'modern',
    voice_id      text not null default '',
    status        text not null default 'queued',
    step          text not null default 'scripting',
    error_message text not null default '',
    video_url     text not null default '',
    video_key     text not null default '',
    size_bytes    bigint not null default 0,
    scene_paths   text[] not null default '{}',
    audio_path    text not null default '',
    published_url text not null default '',
    created_at    timestamptz not null default now(),
    updated_at    timestamptz not null default now()
);

create index if not exists video_jobs_queued_idx
    on video_jobs (created_at)
    where status = 'queued';

create index if not exists video_jobs_user_idx
    on video_jobs (user_id, created_at desc);

create table if not exists integration_tokens (
    id         uuid primary key,
    provider   text not null unique,
    token      text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
